package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/quicknotes/internal/domain/user"
	"github.com/geocoder89/quicknotes/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := run(ctx, r.prom, "users.create", func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := run(ctx, r.prom, "users.get_by_email", func(ctx context.Context) error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, email, password_hash, created_at
			 FROM users
			 WHERE LOWER(email) = $1`,
			user.NormalizeEmail(email),
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
