package conia

import (
	"errors"
	"fmt"
)

// TableResult is the outcome of syncing one table in one direction.
type TableResult struct {
	// Synced counts rows successfully replicated. A table that failed
	// partway through keeps the count of rows applied before the failure.
	Synced int
	// Err is nil when the table completed, otherwise the first error that
	// stopped it or the joined per-row errors that were isolated.
	Err error
}

// SyncResult is the aggregate outcome of a push, pull, or full sync pass.
// Failures are recorded per table rather than propagated, so one bad table
// never hides the counts of the others.
type SyncResult struct {
	RunID       string
	Success     bool
	TotalSynced int
	Tables      map[string]TableResult
}

func newSyncResult(runID string) *SyncResult {
	return &SyncResult{
		RunID:   runID,
		Success: true,
		Tables:  make(map[string]TableResult),
	}
}

// record folds one table outcome into the aggregate.
func (r *SyncResult) record(table string, synced int, err error) {
	tr := r.Tables[table]
	tr.Synced += synced
	if err != nil {
		tr.Err = errors.Join(tr.Err, err)
		r.Success = false
	}
	r.Tables[table] = tr
	r.TotalSynced += synced
}

// merge folds another pass into this one. Used by SyncAll to combine the
// push and pull halves.
func (r *SyncResult) merge(o *SyncResult) {
	for table, tr := range o.Tables {
		r.record(table, tr.Synced, tr.Err)
	}
}

// Err returns the table failures joined in dependency order, or nil when the
// pass succeeded everywhere.
func (r *SyncResult) Err() error {
	var errs []error
	for _, table := range SyncOrder {
		if tr, ok := r.Tables[table]; ok && tr.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", table, tr.Err))
		}
	}
	return errors.Join(errs...)
}
