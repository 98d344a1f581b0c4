package conia

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conia-sync/internal/model"
)

// TableStatus summarizes one table's replication state.
type TableStatus struct {
	Counts    map[model.SyncStatus]int
	Watermark time.Time
}

// StatusReport is a read-only snapshot of where replication stands, built
// entirely from the local store. It never touches the backend, so it works
// offline.
type StatusReport struct {
	Tables    map[string]TableStatus
	LinkCount int
	LastRun   *model.SyncRun
}

// Status reports per-table status counts, watermarks, and the most recent
// sync run.
func (s *SyncService) Status(ctx context.Context) (*StatusReport, error) {
	report := &StatusReport{Tables: make(map[string]TableStatus)}
	for _, table := range EnvelopeTables {
		counts, err := s.local.CountsByStatus(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		wm, err := s.local.Watermark(ctx, table)
		if err != nil && !errors.Is(err, ErrColumnMissing) && !errors.Is(err, ErrTableMissing) {
			return nil, fmt.Errorf("reading %s watermark: %w", table, err)
		}
		report.Tables[table] = TableStatus{Counts: counts, Watermark: wm}
	}

	links, err := s.local.ListTaskTagLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", TableTaskTagLinks, err)
	}
	report.LinkCount = len(links)

	runs, err := s.local.ListSyncRuns(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("reading run history: %w", err)
	}
	if len(runs) > 0 {
		report.LastRun = &runs[0]
	}
	return report, nil
}

// History returns the most recent sync runs, newest first.
func (s *SyncService) History(ctx context.Context, limit int) ([]model.SyncRun, error) {
	runs, err := s.local.ListSyncRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("reading run history: %w", err)
	}
	return runs, nil
}
