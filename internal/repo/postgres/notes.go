package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/quicknotes/internal/domain/note"
	"github.com/geocoder89/quicknotes/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var noteColumns = []string{"id", "owner_id", "title", "body", "created_at", "updated_at"}

type NotesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewNotesRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotesRepo {
	return &NotesRepo{pool: pool, prom: prom}
}

func (r *NotesRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *NotesRepo) Create(ctx context.Context, n note.Note) (note.Note, error) {
	query, args, err := psql.Insert("notes").
		Columns(noteColumns...).
		Values(n.ID, n.OwnerID, n.Title, n.Body, n.CreatedAt, n.UpdatedAt).
		ToSql()
	if err != nil {
		return note.Note{}, fmt.Errorf("build insert: %w", err)
	}

	err = run(ctx, r.prom, "notes.create", func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return note.Note{}, err
	}
	return n, nil
}

func (r *NotesRepo) GetByID(ctx context.Context, id string) (note.Note, error) {
	query, args, err := psql.Select(noteColumns...).
		From("notes").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return note.Note{}, fmt.Errorf("build select: %w", err)
	}

	var n note.Note
	err = run(ctx, r.prom, "notes.get_by_id", func(ctx context.Context) error {
		return scanNote(r.pool.QueryRow(ctx, query, args...), &n)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return note.Note{}, note.ErrNotFound
		}
		return note.Note{}, err
	}
	return n, nil
}

func (r *NotesRepo) ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	query, args, err := psql.Select(noteColumns...).
		From("notes").
		Where("owner_id = ?", ownerID).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	notes := make([]note.Note, 0)
	err = run(ctx, r.prom, "notes.list_by_owner", func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var n note.Note
			if err := scanNote(rows, &n); err != nil {
				return err
			}
			notes = append(notes, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// UpdateOwned applies p only when the row still belongs to ownerID.
func (r *NotesRepo) UpdateOwned(ctx context.Context, id, ownerID string, p note.Patch) (note.Note, error) {
	b := psql.Update("notes").Set("updated_at", p.UpdatedAt)
	if p.Title != nil {
		b = b.Set("title", *p.Title)
	}
	if p.Body != nil {
		b = b.Set("body", *p.Body)
	}

	query, args, err := b.
		Where("id = ? AND owner_id = ?", id, ownerID).
		Suffix("RETURNING id, owner_id, title, body, created_at, updated_at").
		ToSql()
	if err != nil {
		return note.Note{}, fmt.Errorf("build update: %w", err)
	}

	var n note.Note
	err = run(ctx, r.prom, "notes.update_owned", func(ctx context.Context) error {
		return scanNote(r.pool.QueryRow(ctx, query, args...), &n)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return note.Note{}, note.ErrNotFound
		}
		return note.Note{}, err
	}
	return n, nil
}

func (r *NotesRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	query, args, err := psql.Delete("notes").
		Where("id = ? AND owner_id = ?", id, ownerID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	var affected int64
	err = run(ctx, r.prom, "notes.delete_owned", func(ctx context.Context) error {
		tag, err := r.pool.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return note.ErrNotFound
	}
	return nil
}

func scanNote(row pgx.Row, n *note.Note) error {
	if err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return nil
}
