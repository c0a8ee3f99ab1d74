package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the pgx surface repositories run against. *pgxpool.Pool satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ErrDuplicate reports a unique constraint violation. The wrapped message
// names the constraint.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

// DuplicateConstraint returns the violated constraint when err is ErrDuplicate.
func DuplicateConstraint(err error) (string, bool) {
	var dup *duplicateError
	if errors.As(err, &dup) {
		return dup.constraint, true
	}
	return "", false
}

type duplicateError struct {
	constraint string
	err        error
}

func (e *duplicateError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDuplicate, e.constraint)
}

func (e *duplicateError) Is(target error) bool { return target == ErrDuplicate }

func (e *duplicateError) Unwrap() error { return e.err }

func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &duplicateError{constraint: pgErr.ConstraintName, err: err}
	}
	return err
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalized() (limit, offset int) {
	limit, offset = p.Limit, p.Offset
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
