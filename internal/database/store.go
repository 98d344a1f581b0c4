package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"conia-sync/internal/conia"
	"conia-sync/internal/database/migrations"
	"conia-sync/internal/model"
)

// Store implements the local side of replication on SQLite. One Store wraps
// one database file; the pool is pinned to a single connection so session
// pragmas hold for every statement and writes never contend with each other.
type Store struct {
	db     *sql.DB
	path   string
	clock  conia.Clock
	logger conia.Logger
}

var _ conia.LocalStore = (*Store)(nil)

const (
	// retryAttempts bounds how often a failing statement is retried before
	// its first error is handed to the caller.
	retryAttempts = 3
	// retryBackoff is multiplied by the attempt number between retries.
	retryBackoff = 100 * time.Millisecond
)

// NewStore opens the database at path and wraps it. path can be a file path
// or ":memory:".
func NewStore(path string, clock conia.Clock, logger conia.Logger) (*Store, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path, clock: clock, logger: logger}, nil
}

// NewStoreFromDB wraps an existing connection. The caller keeps ownership of
// its configuration; retries will not reconnect it.
func NewStoreFromDB(db *sql.DB, clock conia.Clock, logger conia.Logger) *Store {
	return &Store{db: db, path: "", clock: clock, logger: logger}
}

// OpenConnection opens and configures a SQLite connection. Exported for
// tools and tests that need a connection configured the same way the store
// configures its own.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection, always: replication is sequential, and the pragmas
	// below are per-session.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	return db, nil
}

// CheckMigrations verifies the schema is at the version this binary expects.
func (s *Store) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Migrate applies any pending schema migrations.
func (s *Store) Migrate() error {
	return migrations.Up(s.db)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// withRetry runs op, and on failure reconnects and tries again with a
// growing pause, up to retryAttempts tries in total. The first error is the
// one returned: later attempts often fail with a less useful symptom of the
// same fault. A canceled context stops the retrying immediately, and a
// missing-row result is returned as-is since rerunning the query cannot
// change it.
func (s *Store) withRetry(ctx context.Context, op func(db *sql.DB) error) error {
	var firstErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err := op(s.db)
		if err == nil {
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil || attempt == retryAttempts {
			break
		}

		delay := time.Duration(attempt) * retryBackoff
		s.logger.Warn("statement failed, reconnecting", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return firstErr
		}
		if err := s.reconnect(); err != nil {
			s.logger.Warn("reconnect failed", "error", err)
		}
	}
	return firstErr
}

// reconnect discards the current connection and opens a fresh one. Stores
// without a file path keep their connection: reopening ":memory:" would
// start from an empty database.
func (s *Store) reconnect() error {
	if s.path == "" || s.path == ":memory:" {
		return nil
	}
	s.db.Close()
	db, err := OpenConnection(s.path)
	if err != nil {
		return fmt.Errorf("reopening database: %w", err)
	}
	s.db = db
	return nil
}

// execute runs a statement through the retry wrapper.
func (s *Store) execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := s.withRetry(ctx, func(db *sql.DB) error {
		var err error
		res, err = db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// executeInsert runs an INSERT and returns the new row id.
func (s *Store) executeInsert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.execute(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

// queryAll runs a query and hands the row cursor to collect. collect must
// rebuild its result from scratch each call: after a reconnect the whole
// query reruns.
func (s *Store) queryAll(ctx context.Context, query string, args []any, collect func(*sql.Rows) error) error {
	err := s.withRetry(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		return collect(rows)
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// queryOne runs a single-row query through the retry wrapper.
func (s *Store) queryOne(ctx context.Context, query string, args []any, scan func(*sql.Row) error) error {
	err := s.withRetry(ctx, func(db *sql.DB) error {
		return scan(db.QueryRowContext(ctx, query, args...))
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// transact runs fn inside a transaction through the retry wrapper.
func (s *Store) transact(ctx context.Context, fn func(tx *sql.Tx) error) error {
	err := s.withRetry(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify converts driver faults the engine branches on into sentinel
// errors. This is the only place driver error details are inspected; the
// original error stays in the chain for logs.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", conia.ErrForeignKey, err)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such column"):
		return fmt.Errorf("%w: %v", conia.ErrColumnMissing, err)
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("%w: %v", conia.ErrTableMissing, err)
	}
	return err
}

// checkTable guards the few statements that splice a table name into SQL.
// Only whitelisted names ever reach string concatenation.
func checkTable(table string) error {
	if !conia.KnownTable(table) {
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}

// Watermark returns the newest updated_at in the table, soft-deleted rows
// included, or the zero time for an empty table.
func (s *Store) Watermark(ctx context.Context, table string) (time.Time, error) {
	if err := checkTable(table); err != nil {
		return time.Time{}, err
	}
	var raw sql.NullString
	err := s.queryOne(ctx, `SELECT MAX(updated_at) FROM `+table, nil, func(row *sql.Row) error {
		return row.Scan(&raw)
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("reading %s watermark: %w", table, err)
	}
	if !raw.Valid {
		return time.Time{}, nil
	}
	t, err := model.ParseTime(raw.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s watermark %q: %w", table, raw.String, err)
	}
	return t, nil
}

// MarkSynced flips a row to synced without touching its timestamps.
func (s *Store) MarkSynced(ctx context.Context, table string, id int64) error {
	return s.setSyncStatus(ctx, table, id, model.StatusSynced)
}

// MarkFailed flips a row to failed without touching its timestamps.
func (s *Store) MarkFailed(ctx context.Context, table string, id int64) error {
	return s.setSyncStatus(ctx, table, id, model.StatusFailed)
}

// Restore clears a row's tombstone and flips it to synced, undoing a local
// delete without touching updated_at.
func (s *Store) Restore(ctx context.Context, table string, id int64) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if _, err := s.execute(ctx,
		`UPDATE `+table+` SET deleted_at = NULL, sync_status = ? WHERE id = ?`,
		string(model.StatusSynced), id); err != nil {
		return fmt.Errorf("restoring %s row %d: %w", table, id, err)
	}
	return nil
}

func (s *Store) setSyncStatus(ctx context.Context, table string, id int64, status model.SyncStatus) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if _, err := s.execute(ctx, `UPDATE `+table+` SET sync_status = ? WHERE id = ?`, string(status), id); err != nil {
		return fmt.Errorf("marking %s row %d %s: %w", table, id, status, err)
	}
	return nil
}

// Purge hard-deletes a row. Link rows referencing it go with it via the
// schema's cascades.
func (s *Store) Purge(ctx context.Context, table string, id int64) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if _, err := s.execute(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("purging %s row %d: %w", table, id, err)
	}
	return nil
}

// CountsByStatus returns per-status row counts for one table.
func (s *Store) CountsByStatus(ctx context.Context, table string) (map[model.SyncStatus]int, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	counts := make(map[model.SyncStatus]int)
	err := s.queryAll(ctx, `SELECT sync_status, COUNT(*) FROM `+table+` GROUP BY sync_status`, nil, func(rows *sql.Rows) error {
		clear(counts)
		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			counts[model.SyncStatus(status)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("counting %s rows: %w", table, err)
	}
	return counts, nil
}

// BackupTo writes a consistent copy of the database to path using
// VACUUM INTO, which works while the store is in use.
func (s *Store) BackupTo(ctx context.Context, path string) error {
	if _, err := s.execute(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("writing database copy: %w", err)
	}
	return nil
}
