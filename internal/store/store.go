// Package store is the Postgres persistence layer. Queries are plain SQL
// through pgx; the schema lives in embedded goose migrations.
package store

import (
	"context"
	"embed"
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: already exists")
	ErrNotOwner = errors.New("store: row belongs to another user")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations rooted at the SQL files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every method also
// works inside db.WithTx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store groups all repositories over one connection.
type Store struct {
	db DBTX
}

// New wraps db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to tx.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
