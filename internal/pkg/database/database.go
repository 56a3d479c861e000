// Package database holds the Postgres plumbing shared by the repositories:
// connection setup, the transaction scope used for composite writes, and
// classification of driver errors into the application taxonomy.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/multierr"

	"github.com/georgemunganga/storefront-backend/internal/pkg/apperr"
)

// SQLSTATE codes surfaced to callers.
const (
	CodeForeignKeyViolation = "23503"
	CodeUniqueViolation     = "23505"
	CodeRestrictViolation   = "23001"
)

// Builder is the squirrel statement builder configured for Postgres placeholders.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// WithTx runs fn inside a transaction. The transaction commits only when fn
// returns nil; any error or panic rolls it back.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ConstraintCode returns the SQLSTATE of err when it is an integrity
// constraint violation (class 23), and the empty string otherwise.
func ConstraintCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return string(pqErr.Code)
	}
	return ""
}

// Classify maps driver errors onto the taxonomy: no rows becomes NotFound for
// kind, integrity violations become Constraint, everything else Internal.
func Classify(op, kind string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(kind)
	}
	if code := ConstraintCode(err); code != "" {
		return apperr.Constraint(code, kind+" violates a relational constraint", err)
	}
	return apperr.Wrap(op, err)
}
