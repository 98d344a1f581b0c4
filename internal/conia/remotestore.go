package conia

import (
	"context"
	"time"
)

// RemoteStore is the backend the engine replicates against. Implementations
// speak to one table at a time and never batch; the engine owns ordering and
// error isolation.
type RemoteStore interface {
	// Upsert inserts or updates one row keyed by its primary key and returns
	// the row as stored by the backend.
	Upsert(ctx context.Context, table string, row Row) (Row, error)

	// SelectAll returns every row in the table.
	SelectAll(ctx context.Context, table string) ([]Row, error)

	// SelectWhere returns the rows where column equals value.
	SelectWhere(ctx context.Context, table string, column string, value any) ([]Row, error)

	// SelectNewerThan returns rows with updated_at strictly after the given
	// time, ordered by updated_at ascending.
	SelectNewerThan(ctx context.Context, table string, after time.Time) ([]Row, error)

	// Delete removes the row with the given id.
	Delete(ctx context.Context, table string, id int64) error

	// DeleteWhere removes every row where column equals value.
	DeleteWhere(ctx context.Context, table string, column string, value any) error
}
