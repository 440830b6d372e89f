package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/quicknotes/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func run(ctx context.Context, prom *observability.Prom, op string, fn func(ctx context.Context) error) error {
	return prom.TraceDB(ctx, "postgresql", op, fn)
}
