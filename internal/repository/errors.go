package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

var (
	// ErrReferenced means the row is still referenced by another table.
	ErrReferenced = errors.New("row is still referenced")
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate value")
)

// classify wraps constraint violations in the repository sentinels so the
// service layer can distinguish them from generic failures.
func classify(err error, action string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", action, ErrReferenced, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", action, ErrDuplicate, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}

// uuidStrings converts ids for use with = ANY($n::uuid[]).
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
