package conia

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conia-sync/internal/model"
)

// errBadRow marks a remote row the codec could not make sense of. Such rows
// are skipped, never fatal: one malformed row on the backend must not stall
// replication for the rest of the table.
var errBadRow = errors.New("remote row not decodable")

// pull applies remote changes to the local store, table by table in
// dependency order so foreign-key targets land before their dependents.
func (s *SyncService) pull(ctx context.Context, runID string) *SyncResult {
	res := newSyncResult(runID)
	for _, table := range SyncOrder {
		var n int
		var err error
		if table == TableTaskTagLinks {
			n, err = s.pullLinks(ctx)
		} else {
			n, err = s.pullTable(ctx, table)
		}
		if err != nil {
			s.logger.Warn("pull incomplete", "table", table, "applied", n, "error", err)
		} else {
			s.logger.Debug("pulled table", "table", table, "applied", n)
		}
		res.record(table, n, err)
	}
	return res
}

// pullTable fetches rows newer than the local watermark and applies them in
// ascending updated_at order. Applying in order means a partial failure
// still advances the watermark to the last applied row, so the next pull
// resumes where this one stopped.
func (s *SyncService) pullTable(ctx context.Context, table string) (int, error) {
	after, err := s.tableWatermark(ctx, table)
	if err != nil {
		return 0, err
	}
	rows, err := s.remote.SelectNewerThan(ctx, table, after)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", table, err)
	}

	applied := 0
	for _, row := range rows {
		err := s.applyRemote(ctx, table, row)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, errBadRow), errors.Is(err, ErrForeignKey):
			id, _ := row.Int64("id")
			s.logger.Warn("skipping remote row", "table", table, "id", id, "error", err)
		default:
			return applied, fmt.Errorf("applying %s row: %w", table, err)
		}
	}
	return applied, nil
}

// tableWatermark reads the local high-water mark for a table. A store whose
// schema does not know the table or the updated_at column yet falls back to
// the epoch, which turns the incremental pull into a full one.
func (s *SyncService) tableWatermark(ctx context.Context, table string) (time.Time, error) {
	after, err := s.local.Watermark(ctx, table)
	if err == nil {
		return after, nil
	}
	if errors.Is(err, ErrColumnMissing) || errors.Is(err, ErrTableMissing) {
		s.logger.Warn("watermark unavailable, pulling from epoch", "table", table, "error", err)
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("reading %s watermark: %w", table, err)
}

// applyRemote decodes one remote row and overwrites the local copy. The
// caller has already established the row is newer than anything local, so
// no comparison happens here.
func (s *SyncService) applyRemote(ctx context.Context, table string, row Row) error {
	switch table {
	case TableProjects:
		p, err := decodeProject(row)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRow, err)
		}
		return s.local.ApplyRemoteProject(ctx, p)
	case TableSections:
		sec, err := decodeSection(row)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRow, err)
		}
		return s.local.ApplyRemoteSection(ctx, sec)
	case TableTags:
		t, err := decodeTag(row)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRow, err)
		}
		return s.local.ApplyRemoteTag(ctx, t)
	case TableTasks:
		t, err := decodeTask(row)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRow, err)
		}
		return s.local.ApplyRemoteTask(ctx, t)
	}
	return fmt.Errorf("unknown table %q", table)
}

// pullLinks replaces the whole local link table with the remote one. Links
// carry no timestamps, so there is no watermark to compare; the remote set
// is simply taken as truth.
func (s *SyncService) pullLinks(ctx context.Context) (int, error) {
	rows, err := s.remote.SelectAll(ctx, TableTaskTagLinks)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", TableTaskTagLinks, err)
	}
	links := make([]model.TaskTagLink, 0, len(rows))
	for _, row := range rows {
		l, err := decodeTaskTagLink(row)
		if err != nil {
			s.logger.Warn("skipping link row", "error", err)
			continue
		}
		links = append(links, l)
	}
	n, err := s.local.ReplaceTaskTagLinks(ctx, links)
	if err != nil {
		return n, fmt.Errorf("replacing %s: %w", TableTaskTagLinks, err)
	}
	return n, nil
}
