package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conia-sync/internal/model"
)

const projectColumns = `id, name, default_section_id, updated_at, deleted_at, sync_status`

func scanProject(sc scanner) (model.Project, error) {
	var p model.Project
	var section sql.NullInt64
	var updated string
	var deleted sql.NullString
	var status string
	if err := sc.Scan(&p.ID, &p.Name, &section, &updated, &deleted, &status); err != nil {
		return p, err
	}
	var err error
	if p.UpdatedAt, err = model.ParseTime(updated); err != nil {
		return p, fmt.Errorf("project %d: %w", p.ID, err)
	}
	if p.DeletedAt, err = nullTime(deleted); err != nil {
		return p, fmt.Errorf("project %d: %w", p.ID, err)
	}
	if p.SyncStatus, err = model.ParseSyncStatus(status); err != nil {
		return p, fmt.Errorf("project %d: %w", p.ID, err)
	}
	p.DefaultSectionID = nullID(section)
	return p, nil
}

func (s *Store) listProjects(ctx context.Context, where string, args ...any) ([]model.Project, error) {
	var out []model.Project
	err := s.queryAll(ctx, `SELECT `+projectColumns+` FROM projects `+where, args, func(rows *sql.Rows) error {
		out = out[:0]
		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject inserts a new project in pending state.
func (s *Store) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	now := model.Truncate(s.clock.Now())
	id, err := s.executeInsert(ctx,
		`INSERT INTO projects (name, updated_at, sync_status) VALUES (?, ?, ?)`,
		name, model.FormatTime(now), string(model.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return &model.Project{
		ID:         id,
		Name:       name,
		UpdatedAt:  now,
		SyncStatus: model.StatusPending,
	}, nil
}

// GetProject returns the project with the given id, or nil when absent.
func (s *Store) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := s.queryOne(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, []any{id}, func(row *sql.Row) error {
		var err error
		p, err = scanProject(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding project %d: %w", id, err)
	}
	return &p, nil
}

// ListProjects returns the live projects ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	out, err := s.listProjects(ctx, `WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return out, nil
}

// RenameProject gives a live project a new name and sends it back to
// pending.
func (s *Store) RenameProject(ctx context.Context, id int64, name string) error {
	now := model.Truncate(s.clock.Now())
	res, err := s.execute(ctx,
		`UPDATE projects SET name = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		name, model.FormatTime(now), string(model.StatusPending), id)
	if err != nil {
		return fmt.Errorf("renaming project %d: %w", id, err)
	}
	return requireAffected(res, "project", id)
}

// SetProjectDefaultSection points the project at the section new tasks
// default into.
func (s *Store) SetProjectDefaultSection(ctx context.Context, projectID int64, sectionID *int64) error {
	now := model.Truncate(s.clock.Now())
	res, err := s.execute(ctx,
		`UPDATE projects SET default_section_id = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		idArg(sectionID), model.FormatTime(now), string(model.StatusPending), projectID)
	if err != nil {
		return fmt.Errorf("updating project %d: %w", projectID, err)
	}
	return requireAffected(res, "project", projectID)
}

// SoftDeleteProject tombstones a live project for the next push.
func (s *Store) SoftDeleteProject(ctx context.Context, id int64) error {
	now := model.Truncate(s.clock.Now())
	stamp := model.FormatTime(now)
	res, err := s.execute(ctx,
		`UPDATE projects SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		stamp, stamp, string(model.StatusPendingDelete), id)
	if err != nil {
		return fmt.Errorf("deleting project %d: %w", id, err)
	}
	return requireAffected(res, "project", id)
}

// PendingProjects returns live projects whose sync_status is not synced.
func (s *Store) PendingProjects(ctx context.Context) ([]model.Project, error) {
	out, err := s.listProjects(ctx,
		`WHERE sync_status != ? AND deleted_at IS NULL ORDER BY id`, string(model.StatusSynced))
	if err != nil {
		return nil, fmt.Errorf("listing pending projects: %w", err)
	}
	return out, nil
}

// PendingDeleteProjects returns projects tombstoned locally but not yet
// deleted remotely.
func (s *Store) PendingDeleteProjects(ctx context.Context) ([]model.Project, error) {
	out, err := s.listProjects(ctx,
		`WHERE sync_status = ? ORDER BY id`, string(model.StatusPendingDelete))
	if err != nil {
		return nil, fmt.Errorf("listing deleted projects: %w", err)
	}
	return out, nil
}

// ApplyRemoteProject overwrites the local copy with the backend's and marks
// it synced.
func (s *Store) ApplyRemoteProject(ctx context.Context, p model.Project) error {
	_, err := s.execute(ctx, `
		INSERT INTO projects (id, name, default_section_id, updated_at, deleted_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			default_section_id = excluded.default_section_id,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			sync_status = excluded.sync_status`,
		p.ID, p.Name, idArg(p.DefaultSectionID), model.FormatTime(p.UpdatedAt), timeArg(p.DeletedAt), string(model.StatusSynced))
	if err != nil {
		return fmt.Errorf("applying remote project %d: %w", p.ID, err)
	}
	return nil
}

// requireAffected turns a zero-row UPDATE into a not-found error.
func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d not found", entity, id)
	}
	return nil
}
