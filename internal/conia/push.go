package conia

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conia-sync/internal/model"
)

// push replicates local pending changes to the backend, one table at a time
// in dependency order. The link table never appears here: links travel with
// the task they belong to.
func (s *SyncService) push(ctx context.Context, runID string) *SyncResult {
	res := newSyncResult(runID)
	for _, table := range SyncOrder {
		if table == TableTaskTagLinks {
			continue
		}
		n, err := s.pushTable(ctx, table)
		if err != nil {
			s.logger.Warn("push incomplete", "table", table, "synced", n, "error", err)
		} else {
			s.logger.Debug("pushed table", "table", table, "synced", n)
		}
		res.record(table, n, err)
	}
	return res
}

func (s *SyncService) pushTable(ctx context.Context, table string) (int, error) {
	switch table {
	case TableProjects:
		return s.pushProjects(ctx)
	case TableSections:
		return s.pushSections(ctx)
	case TableTags:
		return s.pushTags(ctx)
	case TableTasks:
		return s.pushTasks(ctx)
	}
	return 0, fmt.Errorf("unknown table %q", table)
}

// Each pushX walks the table's pending rows, then its pending deletes. A row
// that fails keeps its current sync_status and the pass moves on; the errors
// are joined into the table result instead of stopping it.

func (s *SyncService) pushProjects(ctx context.Context) (int, error) {
	var errs []error
	synced := 0

	pending, err := s.local.PendingProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pending projects: %w", err)
	}
	for _, p := range pending {
		if err := s.pushProject(ctx, p); err != nil {
			s.logger.Warn("push failed", "table", TableProjects, "id", p.ID, "error", err)
			errs = append(errs, fmt.Errorf("project %d: %w", p.ID, err))
			continue
		}
		synced++
	}

	deletes, err := s.local.PendingDeleteProjects(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing deleted projects: %w", err))
		return synced, errors.Join(errs...)
	}
	for _, p := range deletes {
		err := s.resolveDelete(ctx, TableProjects, p.ID, deletionTime(p.DeletedAt, p.UpdatedAt), func(r Row) error {
			rp, err := decodeProject(r)
			if err != nil {
				return err
			}
			return s.local.ApplyRemoteProject(ctx, rp)
		})
		if err != nil {
			s.logger.Warn("delete push failed", "table", TableProjects, "id", p.ID, "error", err)
			errs = append(errs, fmt.Errorf("project %d: %w", p.ID, err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}

func (s *SyncService) pushProject(ctx context.Context, p model.Project) error {
	remote, err := s.remoteRow(ctx, TableProjects, p.ID)
	if err != nil {
		return err
	}
	if newer(remote, p.UpdatedAt) {
		rp, err := decodeProject(remote)
		if err != nil {
			return err
		}
		return s.local.ApplyRemoteProject(ctx, rp)
	}
	if _, err := s.remote.Upsert(ctx, TableProjects, encodeProject(p)); err != nil {
		return fmt.Errorf("upserting: %w", err)
	}
	return s.local.MarkSynced(ctx, TableProjects, p.ID)
}

func (s *SyncService) pushSections(ctx context.Context) (int, error) {
	var errs []error
	synced := 0

	pending, err := s.local.PendingSections(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pending sections: %w", err)
	}
	for _, sec := range pending {
		if err := s.pushSection(ctx, sec); err != nil {
			s.logger.Warn("push failed", "table", TableSections, "id", sec.ID, "error", err)
			errs = append(errs, fmt.Errorf("section %d: %w", sec.ID, err))
			continue
		}
		synced++
	}

	deletes, err := s.local.PendingDeleteSections(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing deleted sections: %w", err))
		return synced, errors.Join(errs...)
	}
	for _, sec := range deletes {
		err := s.resolveDelete(ctx, TableSections, sec.ID, deletionTime(sec.DeletedAt, sec.UpdatedAt), func(r Row) error {
			rs, err := decodeSection(r)
			if err != nil {
				return err
			}
			return s.local.ApplyRemoteSection(ctx, rs)
		})
		if err != nil {
			s.logger.Warn("delete push failed", "table", TableSections, "id", sec.ID, "error", err)
			errs = append(errs, fmt.Errorf("section %d: %w", sec.ID, err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}

func (s *SyncService) pushSection(ctx context.Context, sec model.Section) error {
	remote, err := s.remoteRow(ctx, TableSections, sec.ID)
	if err != nil {
		return err
	}
	if newer(remote, sec.UpdatedAt) {
		rs, err := decodeSection(remote)
		if err != nil {
			return err
		}
		return s.local.ApplyRemoteSection(ctx, rs)
	}
	if _, err := s.remote.Upsert(ctx, TableSections, encodeSection(sec)); err != nil {
		return fmt.Errorf("upserting: %w", err)
	}
	return s.local.MarkSynced(ctx, TableSections, sec.ID)
}

func (s *SyncService) pushTags(ctx context.Context) (int, error) {
	var errs []error
	synced := 0

	pending, err := s.local.PendingTags(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pending tags: %w", err)
	}
	for _, t := range pending {
		if err := s.pushTag(ctx, t); err != nil {
			s.logger.Warn("push failed", "table", TableTags, "id", t.ID, "error", err)
			errs = append(errs, fmt.Errorf("tag %d: %w", t.ID, err))
			continue
		}
		synced++
	}

	deletes, err := s.local.PendingDeleteTags(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing deleted tags: %w", err))
		return synced, errors.Join(errs...)
	}
	for _, t := range deletes {
		err := s.resolveDelete(ctx, TableTags, t.ID, deletionTime(t.DeletedAt, t.UpdatedAt), func(r Row) error {
			rt, err := decodeTag(r)
			if err != nil {
				return err
			}
			return s.local.ApplyRemoteTag(ctx, rt)
		})
		if err != nil {
			s.logger.Warn("delete push failed", "table", TableTags, "id", t.ID, "error", err)
			errs = append(errs, fmt.Errorf("tag %d: %w", t.ID, err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}

func (s *SyncService) pushTag(ctx context.Context, t model.Tag) error {
	remote, err := s.remoteRow(ctx, TableTags, t.ID)
	if err != nil {
		return err
	}
	if newer(remote, t.UpdatedAt) {
		rt, err := decodeTag(remote)
		if err != nil {
			return err
		}
		return s.local.ApplyRemoteTag(ctx, rt)
	}
	if _, err := s.remote.Upsert(ctx, TableTags, encodeTag(t)); err != nil {
		return fmt.Errorf("upserting: %w", err)
	}
	return s.local.MarkSynced(ctx, TableTags, t.ID)
}

func (s *SyncService) pushTasks(ctx context.Context) (int, error) {
	var errs []error
	synced := 0

	pending, err := s.local.PendingTasks(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pending tasks: %w", err)
	}
	for _, t := range pending {
		if err := s.pushTask(ctx, t); err != nil {
			s.logger.Warn("push failed", "table", TableTasks, "id", t.ID, "error", err)
			errs = append(errs, fmt.Errorf("task %d: %w", t.ID, err))
			continue
		}
		synced++
	}

	deletes, err := s.local.PendingDeleteTasks(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing deleted tasks: %w", err))
		return synced, errors.Join(errs...)
	}
	for _, t := range deletes {
		err := s.resolveDelete(ctx, TableTasks, t.ID, deletionTime(t.DeletedAt, t.UpdatedAt), func(r Row) error {
			rt, err := decodeTask(r)
			if err != nil {
				return err
			}
			return s.local.ApplyRemoteTask(ctx, rt)
		})
		if err != nil {
			s.logger.Warn("delete push failed", "table", TableTasks, "id", t.ID, "error", err)
			errs = append(errs, fmt.Errorf("task %d: %w", t.ID, err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}

// pushTask uploads the task row and then its tag set. A task whose row made
// it to the backend but whose tags did not is marked failed rather than left
// pending: the remote copy exists but is incomplete, and that state must
// survive restarts so a later push retries the tags.
func (s *SyncService) pushTask(ctx context.Context, t model.Task) error {
	remote, err := s.remoteRow(ctx, TableTasks, t.ID)
	if err != nil {
		return err
	}
	if newer(remote, t.UpdatedAt) {
		rt, err := decodeTask(remote)
		if err != nil {
			return err
		}
		return s.local.ApplyRemoteTask(ctx, rt)
	}
	if _, err := s.remote.Upsert(ctx, TableTasks, encodeTask(t)); err != nil {
		return fmt.Errorf("upserting: %w", err)
	}
	if err := s.reconcileTaskTags(ctx, t.ID); err != nil {
		if mErr := s.local.MarkFailed(ctx, TableTasks, t.ID); mErr != nil {
			s.logger.Warn("marking task failed", "id", t.ID, "error", mErr)
		}
		return fmt.Errorf("reconciling tags: %w", err)
	}
	return s.local.MarkSynced(ctx, TableTasks, t.ID)
}

// reconcileTaskTags makes the backend's link set for one task equal the
// local one. Tags are matched by name so two devices that invented the same
// tag independently converge on a single remote row; the existing remote
// links are dropped and the current set written in their place.
func (s *SyncService) reconcileTaskTags(ctx context.Context, taskID int64) error {
	tags, err := s.local.TagsForTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("listing task tags: %w", err)
	}
	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		id, err := s.ensureRemoteTag(ctx, t)
		if err != nil {
			return fmt.Errorf("ensuring tag %q: %w", t.Name, err)
		}
		ids = append(ids, id)
	}
	if err := s.remote.DeleteWhere(ctx, TableTaskTagLinks, "task_id", taskID); err != nil {
		return fmt.Errorf("clearing links: %w", err)
	}
	for _, tagID := range ids {
		if _, err := s.remote.Upsert(ctx, TableTaskTagLinks, Row{"task_id": taskID, "tag_id": tagID}); err != nil {
			return fmt.Errorf("linking tag %d: %w", tagID, err)
		}
	}
	return nil
}

// ensureRemoteTag returns the backend id for a tag, creating the tag there
// if no live row shares its name.
func (s *SyncService) ensureRemoteTag(ctx context.Context, tag model.Tag) (int64, error) {
	rows, err := s.remote.SelectWhere(ctx, TableTags, "name", tag.Name)
	if err != nil {
		return 0, fmt.Errorf("looking up tag: %w", err)
	}
	for _, row := range rows {
		if _, deleted := row.Time("deleted_at"); deleted {
			continue
		}
		if id, ok := row.Int64("id"); ok {
			return id, nil
		}
	}
	stored, err := s.remote.Upsert(ctx, TableTags, encodeTag(tag))
	if err != nil {
		return 0, fmt.Errorf("creating tag: %w", err)
	}
	if id, ok := stored.Int64("id"); ok {
		return id, nil
	}
	return tag.ID, nil
}

// resolveDelete pushes one local soft delete. When the backend has a copy
// edited after the local deletion, the edit wins: apply revives the row
// locally from the remote copy. Otherwise the backend row is removed and the
// local tombstone purged.
func (s *SyncService) resolveDelete(ctx context.Context, table string, id int64, deletedAt time.Time, apply func(Row) error) error {
	remote, err := s.remoteRow(ctx, table, id)
	if err != nil {
		return err
	}
	if newer(remote, deletedAt) {
		return apply(remote)
	}
	if err := s.clearRemoteLinks(ctx, table, id); err != nil {
		return err
	}
	if err := s.remote.Delete(ctx, table, id); err != nil {
		return fmt.Errorf("deleting: %w", err)
	}
	return s.local.Purge(ctx, table, id)
}

// clearRemoteLinks removes the backend link rows that reference a task or
// tag about to be deleted there. Other tables have no link references.
func (s *SyncService) clearRemoteLinks(ctx context.Context, table string, id int64) error {
	var column string
	switch table {
	case TableTasks:
		column = "task_id"
	case TableTags:
		column = "tag_id"
	default:
		return nil
	}
	if err := s.remote.DeleteWhere(ctx, TableTaskTagLinks, column, id); err != nil {
		return fmt.Errorf("clearing links: %w", err)
	}
	return nil
}

// remoteRow fetches the backend's copy of one row, or nil when it has none.
func (s *SyncService) remoteRow(ctx context.Context, table string, id int64) (Row, error) {
	rows, err := s.remote.SelectWhere(ctx, table, "id", id)
	if err != nil {
		return nil, fmt.Errorf("fetching remote copy: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// newer reports whether the remote copy was written after the given local
// time. A missing row or an unreadable timestamp counts as older, which
// lets the local write proceed.
func newer(remote Row, local time.Time) bool {
	if remote == nil {
		return false
	}
	at, ok := remote.Time("updated_at")
	return ok && at.After(local)
}

// deletionTime picks the timestamp a deletion is resolved against. Rows
// soft-deleted before the deleted_at column existed fall back to their last
// update time.
func deletionTime(deletedAt *time.Time, updatedAt time.Time) time.Time {
	if deletedAt != nil {
		return *deletedAt
	}
	return updatedAt
}
