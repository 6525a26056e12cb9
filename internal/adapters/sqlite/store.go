// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/example/claimhub/internal/ports/secondary"
)

// querier is satisfied by both *sql.DB and *sql.Tx so repositories can run
// standalone or bound to a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements secondary.Store with SQLite.
//
// Transactions are opened through the connection's DSN with BEGIN IMMEDIATE
// (see db.DSN), so the write lock is taken before the first read and every
// decision made inside WithinTx is serialized against other writers, including
// other processes sharing the database file.
type Store struct {
	db *sql.DB
}

var _ secondary.Store = (*Store)(nil)

// NewStore creates a new SQLite store over an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithinTx runs fn in one transaction. Busy and locked database errors are
// reported as secondary.ErrConflict.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError("failed to begin transaction", err)
	}

	repos := secondary.Repositories{
		Tasks:       newTaskRepository(tx),
		Assignments: newAssignmentRepository(tx),
		Settings:    newSettingsRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		tx.Rollback()
		return translateError("", err)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return translateError("failed to commit transaction", err)
	}

	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// translateError maps driver contention errors to secondary.ErrConflict.
// Errors that are not contention pass through (wrapped when msg is set).
func translateError(msg string, err error) error {
	if isBusy(err) && !errors.Is(err, secondary.ErrConflict) {
		if msg == "" {
			msg = "database busy"
		}
		return fmt.Errorf("%s: %w: %v", msg, secondary.ErrConflict, err)
	}
	if msg == "" {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
