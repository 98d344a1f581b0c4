package conia

import (
	"context"
	"fmt"

	"conia-sync/internal/model"
)

// FullResync discards incremental state and rebuilds the local dataset from
// a complete remote fetch. The import is all-or-nothing: if any table cannot
// be fetched, or the import transaction fails, the current local dataset is
// left untouched.
func (s *SyncService) FullResync(ctx context.Context) *SyncResult {
	run := s.beginRun(ctx, "resync")
	res := s.resync(ctx, run.RunID)
	s.endRun(ctx, run, res.Success, 0, res.TotalSynced)
	return res
}

func (s *SyncService) resync(ctx context.Context, runID string) *SyncResult {
	res := newSyncResult(runID)

	ds := &model.Dataset{}
	counts := make(map[string]int)
	fetchFailed := false
	for _, table := range SyncOrder {
		rows, err := s.remote.SelectAll(ctx, table)
		if err != nil {
			res.record(table, 0, fmt.Errorf("fetching %s: %w", table, err))
			fetchFailed = true
			continue
		}
		counts[table] = s.decodeInto(ds, table, rows)
	}
	if fetchFailed {
		s.logger.Error("resync aborted on incomplete fetch, local dataset unchanged", "run_id", runID)
		for _, table := range SyncOrder {
			if _, recorded := res.Tables[table]; !recorded {
				res.record(table, 0, nil)
			}
		}
		res.Success = false
		return res
	}

	if err := s.local.ImportAll(ctx, ds); err != nil {
		err = fmt.Errorf("importing dataset: %w", err)
		s.logger.Error("resync failed, local dataset unchanged", "run_id", runID, "error", err)
		for _, table := range SyncOrder {
			res.record(table, 0, err)
		}
		return res
	}

	for _, table := range SyncOrder {
		res.record(table, counts[table], nil)
		s.logger.Debug("imported table", "table", table, "rows", counts[table])
	}
	return res
}

// decodeInto appends the decodable rows of one table to the dataset and
// returns how many made it. Undecodable rows are logged and dropped, same
// as in an incremental pull.
func (s *SyncService) decodeInto(ds *model.Dataset, table string, rows []Row) int {
	n := 0
	for _, row := range rows {
		var err error
		switch table {
		case TableProjects:
			var p model.Project
			if p, err = decodeProject(row); err == nil {
				ds.Projects = append(ds.Projects, p)
			}
		case TableSections:
			var sec model.Section
			if sec, err = decodeSection(row); err == nil {
				ds.Sections = append(ds.Sections, sec)
			}
		case TableTags:
			var t model.Tag
			if t, err = decodeTag(row); err == nil {
				ds.Tags = append(ds.Tags, t)
			}
		case TableTasks:
			var t model.Task
			if t, err = decodeTask(row); err == nil {
				ds.Tasks = append(ds.Tasks, t)
			}
		case TableTaskTagLinks:
			var l model.TaskTagLink
			if l, err = decodeTaskTagLink(row); err == nil {
				ds.TaskTagLinks = append(ds.TaskTagLinks, l)
			}
		}
		if err != nil {
			s.logger.Warn("skipping remote row", "table", table, "error", err)
			continue
		}
		n++
	}
	return n
}
