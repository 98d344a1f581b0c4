package conia

import "errors"

// Sentinel errors surfaced by the local store adapter. The adapter is the
// only place where driver error text is inspected; everything above it
// branches with errors.Is on these values.
var (
	// ErrColumnMissing marks a statement that referenced a column absent
	// from the local schema, typically a store that has not been migrated
	// to the current version yet.
	ErrColumnMissing = errors.New("column missing from local schema")

	// ErrTableMissing marks a statement against a table that does not exist
	// locally.
	ErrTableMissing = errors.New("table missing from local schema")

	// ErrForeignKey marks a write whose foreign-key target is absent. The
	// pull engine skips such rows instead of failing the batch.
	ErrForeignKey = errors.New("foreign key target missing")
)
