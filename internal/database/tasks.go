package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conia-sync/internal/conia"
	"conia-sync/internal/model"
)

const taskColumns = `id, project_id, section_id, parent_id, title, description, completed, is_expanded, updated_at, deleted_at, sync_status`

// taskColumnsLegacy is the column set before the expansion-state migration.
// Stores still on the initial schema are read through it, with IsExpanded
// defaulting to true like the migration's column default.
const taskColumnsLegacy = `id, project_id, section_id, parent_id, title, description, completed, updated_at, deleted_at, sync_status`

func scanTask(sc scanner) (model.Task, error) {
	var t model.Task
	var section, parent sql.NullInt64
	var updated string
	var deleted sql.NullString
	var status string
	if err := sc.Scan(&t.ID, &t.ProjectID, &section, &parent, &t.Title, &t.Description,
		&t.Completed, &t.IsExpanded, &updated, &deleted, &status); err != nil {
		return t, err
	}
	return finishTask(t, updated, deleted, status)
}

func scanTaskLegacy(sc scanner) (model.Task, error) {
	t := model.Task{IsExpanded: true}
	var section, parent sql.NullInt64
	var updated string
	var deleted sql.NullString
	var status string
	if err := sc.Scan(&t.ID, &t.ProjectID, &section, &parent, &t.Title, &t.Description,
		&t.Completed, &updated, &deleted, &status); err != nil {
		return t, err
	}
	return finishTask(t, updated, deleted, status)
}

func finishTask(t model.Task, updated string, deleted sql.NullString, status string) (model.Task, error) {
	var err error
	if t.UpdatedAt, err = model.ParseTime(updated); err != nil {
		return t, fmt.Errorf("task %d: %w", t.ID, err)
	}
	if t.DeletedAt, err = nullTime(deleted); err != nil {
		return t, fmt.Errorf("task %d: %w", t.ID, err)
	}
	if t.SyncStatus, err = model.ParseSyncStatus(status); err != nil {
		return t, fmt.Errorf("task %d: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) selectTasks(ctx context.Context, columns string, scan func(scanner) (model.Task, error), where string, args []any) ([]model.Task, error) {
	var out []model.Task
	err := s.queryAll(ctx, `SELECT `+columns+` FROM tasks `+where, args, func(rows *sql.Rows) error {
		out = out[:0]
		for rows.Next() {
			t, err := scan(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// listTasks reads tasks with the current column set and falls back to the
// legacy one when the store predates the expansion column, so replication
// keeps working on an unmigrated store instead of failing the whole table.
func (s *Store) listTasks(ctx context.Context, where string, args ...any) ([]model.Task, error) {
	out, err := s.selectTasks(ctx, taskColumns, scanTask, where, args)
	if errors.Is(err, conia.ErrColumnMissing) {
		s.logger.Warn("task select hit missing column, reading without expansion state", "error", err)
		return s.selectTasks(ctx, taskColumnsLegacy, scanTaskLegacy, where, args)
	}
	return out, err
}

// CreateTaskParams carries the caller-supplied fields of a new task.
type CreateTaskParams struct {
	ProjectID   int64
	SectionID   *int64
	ParentID    *int64
	Title       string
	Description string
}

// CreateTask inserts a new task in pending state. New tasks start expanded.
func (s *Store) CreateTask(ctx context.Context, params CreateTaskParams) (*model.Task, error) {
	now := model.Truncate(s.clock.Now())
	id, err := s.executeInsert(ctx, `
		INSERT INTO tasks (project_id, section_id, parent_id, title, description, updated_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		params.ProjectID, idArg(params.SectionID), idArg(params.ParentID),
		params.Title, params.Description, model.FormatTime(now), string(model.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &model.Task{
		ID:          id,
		ProjectID:   params.ProjectID,
		SectionID:   params.SectionID,
		ParentID:    params.ParentID,
		Title:       params.Title,
		Description: params.Description,
		IsExpanded:  true,
		UpdatedAt:   now,
		SyncStatus:  model.StatusPending,
	}, nil
}

// GetTask returns the task with the given id, or nil when absent.
func (s *Store) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	out, err := s.listTasks(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("finding task %d: %w", id, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// ListTasks returns a project's live tasks ordered by id.
func (s *Store) ListTasks(ctx context.Context, projectID int64) ([]model.Task, error) {
	out, err := s.listTasks(ctx,
		`WHERE project_id = ? AND deleted_at IS NULL ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return out, nil
}

// UpdateTask rewrites a live task's title and description and sends it back
// to pending.
func (s *Store) UpdateTask(ctx context.Context, id int64, title, description string) error {
	now := model.Truncate(s.clock.Now())
	res, err := s.execute(ctx,
		`UPDATE tasks SET title = ?, description = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		title, description, model.FormatTime(now), string(model.StatusPending), id)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	return requireAffected(res, "task", id)
}

// CompleteTask sets the completion flag on a live task.
func (s *Store) CompleteTask(ctx context.Context, id int64, completed bool) error {
	now := model.Truncate(s.clock.Now())
	res, err := s.execute(ctx,
		`UPDATE tasks SET completed = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		completed, model.FormatTime(now), string(model.StatusPending), id)
	if err != nil {
		return fmt.Errorf("completing task %d: %w", id, err)
	}
	return requireAffected(res, "task", id)
}

// SetTaskExpanded persists the outline expansion state. The state replicates
// like any other field, so the row goes back to pending.
func (s *Store) SetTaskExpanded(ctx context.Context, id int64, expanded bool) error {
	now := model.Truncate(s.clock.Now())
	res, err := s.execute(ctx,
		`UPDATE tasks SET is_expanded = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		expanded, model.FormatTime(now), string(model.StatusPending), id)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	return requireAffected(res, "task", id)
}

// SoftDeleteTask tombstones a live task for the next push.
func (s *Store) SoftDeleteTask(ctx context.Context, id int64) error {
	now := model.Truncate(s.clock.Now())
	stamp := model.FormatTime(now)
	res, err := s.execute(ctx,
		`UPDATE tasks SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		stamp, stamp, string(model.StatusPendingDelete), id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	return requireAffected(res, "task", id)
}

// PendingTasks returns live tasks whose sync_status is not synced.
func (s *Store) PendingTasks(ctx context.Context) ([]model.Task, error) {
	out, err := s.listTasks(ctx,
		`WHERE sync_status != ? AND deleted_at IS NULL ORDER BY id`, string(model.StatusSynced))
	if err != nil {
		return nil, fmt.Errorf("listing pending tasks: %w", err)
	}
	return out, nil
}

// PendingDeleteTasks returns tasks tombstoned locally but not yet deleted
// remotely.
func (s *Store) PendingDeleteTasks(ctx context.Context) ([]model.Task, error) {
	out, err := s.listTasks(ctx,
		`WHERE sync_status = ? ORDER BY id`, string(model.StatusPendingDelete))
	if err != nil {
		return nil, fmt.Errorf("listing deleted tasks: %w", err)
	}
	return out, nil
}

// ApplyRemoteTask overwrites the local copy with the backend's and marks it
// synced. When the local schema predates the expansion column the write is
// retried without it, so an older store still receives everything it can
// represent.
func (s *Store) ApplyRemoteTask(ctx context.Context, t model.Task) error {
	err := s.applyTask(ctx, t)
	if errors.Is(err, conia.ErrColumnMissing) {
		s.logger.Warn("task upsert hit missing column, writing without expansion state", "id", t.ID, "error", err)
		err = s.applyTaskNarrow(ctx, t)
	}
	if err != nil {
		return fmt.Errorf("applying remote task %d: %w", t.ID, err)
	}
	return nil
}

func (s *Store) applyTask(ctx context.Context, t model.Task) error {
	_, err := s.execute(ctx, `
		INSERT INTO tasks (id, project_id, section_id, parent_id, title, description, completed, is_expanded, updated_at, deleted_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			section_id = excluded.section_id,
			parent_id = excluded.parent_id,
			title = excluded.title,
			description = excluded.description,
			completed = excluded.completed,
			is_expanded = excluded.is_expanded,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			sync_status = excluded.sync_status`,
		t.ID, t.ProjectID, idArg(t.SectionID), idArg(t.ParentID), t.Title, t.Description,
		t.Completed, t.IsExpanded, model.FormatTime(t.UpdatedAt), timeArg(t.DeletedAt), string(model.StatusSynced))
	return err
}

func (s *Store) applyTaskNarrow(ctx context.Context, t model.Task) error {
	_, err := s.execute(ctx, `
		INSERT INTO tasks (id, project_id, section_id, parent_id, title, description, completed, updated_at, deleted_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			section_id = excluded.section_id,
			parent_id = excluded.parent_id,
			title = excluded.title,
			description = excluded.description,
			completed = excluded.completed,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			sync_status = excluded.sync_status`,
		t.ID, t.ProjectID, idArg(t.SectionID), idArg(t.ParentID), t.Title, t.Description,
		t.Completed, model.FormatTime(t.UpdatedAt), timeArg(t.DeletedAt), string(model.StatusSynced))
	return err
}
