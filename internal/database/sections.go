package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conia-sync/internal/model"
)

const sectionColumns = `id, project_id, name, updated_at, deleted_at, sync_status`

func scanSection(sc scanner) (model.Section, error) {
	var sec model.Section
	var updated string
	var deleted sql.NullString
	var status string
	if err := sc.Scan(&sec.ID, &sec.ProjectID, &sec.Name, &updated, &deleted, &status); err != nil {
		return sec, err
	}
	var err error
	if sec.UpdatedAt, err = model.ParseTime(updated); err != nil {
		return sec, fmt.Errorf("section %d: %w", sec.ID, err)
	}
	if sec.DeletedAt, err = nullTime(deleted); err != nil {
		return sec, fmt.Errorf("section %d: %w", sec.ID, err)
	}
	if sec.SyncStatus, err = model.ParseSyncStatus(status); err != nil {
		return sec, fmt.Errorf("section %d: %w", sec.ID, err)
	}
	return sec, nil
}

func (s *Store) listSections(ctx context.Context, where string, args ...any) ([]model.Section, error) {
	var out []model.Section
	err := s.queryAll(ctx, `SELECT `+sectionColumns+` FROM sections `+where, args, func(rows *sql.Rows) error {
		out = out[:0]
		for rows.Next() {
			sec, err := scanSection(rows)
			if err != nil {
				return err
			}
			out = append(out, sec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSection inserts a new section in pending state.
func (s *Store) CreateSection(ctx context.Context, projectID int64, name string) (*model.Section, error) {
	now := model.Truncate(s.clock.Now())
	id, err := s.executeInsert(ctx,
		`INSERT INTO sections (project_id, name, updated_at, sync_status) VALUES (?, ?, ?, ?)`,
		projectID, name, model.FormatTime(now), string(model.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("creating section: %w", err)
	}
	return &model.Section{
		ID:         id,
		ProjectID:  projectID,
		Name:       name,
		UpdatedAt:  now,
		SyncStatus: model.StatusPending,
	}, nil
}

// GetSection returns the section with the given id, or nil when absent.
func (s *Store) GetSection(ctx context.Context, id int64) (*model.Section, error) {
	var sec model.Section
	err := s.queryOne(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = ?`, []any{id}, func(row *sql.Row) error {
		var err error
		sec, err = scanSection(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding section %d: %w", id, err)
	}
	return &sec, nil
}

// ListSections returns a project's live sections ordered by id.
func (s *Store) ListSections(ctx context.Context, projectID int64) ([]model.Section, error) {
	out, err := s.listSections(ctx,
		`WHERE project_id = ? AND deleted_at IS NULL ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	return out, nil
}

// RenameSection gives a live section a new name and sends it back to
// pending.
func (s *Store) RenameSection(ctx context.Context, id int64, name string) error {
	now := model.Truncate(s.clock.Now())
	res, err := s.execute(ctx,
		`UPDATE sections SET name = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		name, model.FormatTime(now), string(model.StatusPending), id)
	if err != nil {
		return fmt.Errorf("renaming section %d: %w", id, err)
	}
	return requireAffected(res, "section", id)
}

// SoftDeleteSection tombstones a live section for the next push.
func (s *Store) SoftDeleteSection(ctx context.Context, id int64) error {
	now := model.Truncate(s.clock.Now())
	stamp := model.FormatTime(now)
	res, err := s.execute(ctx,
		`UPDATE sections SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		stamp, stamp, string(model.StatusPendingDelete), id)
	if err != nil {
		return fmt.Errorf("deleting section %d: %w", id, err)
	}
	return requireAffected(res, "section", id)
}

// PendingSections returns live sections whose sync_status is not synced.
func (s *Store) PendingSections(ctx context.Context) ([]model.Section, error) {
	out, err := s.listSections(ctx,
		`WHERE sync_status != ? AND deleted_at IS NULL ORDER BY id`, string(model.StatusSynced))
	if err != nil {
		return nil, fmt.Errorf("listing pending sections: %w", err)
	}
	return out, nil
}

// PendingDeleteSections returns sections tombstoned locally but not yet
// deleted remotely.
func (s *Store) PendingDeleteSections(ctx context.Context) ([]model.Section, error) {
	out, err := s.listSections(ctx,
		`WHERE sync_status = ? ORDER BY id`, string(model.StatusPendingDelete))
	if err != nil {
		return nil, fmt.Errorf("listing deleted sections: %w", err)
	}
	return out, nil
}

// ApplyRemoteSection overwrites the local copy with the backend's and marks
// it synced.
func (s *Store) ApplyRemoteSection(ctx context.Context, sec model.Section) error {
	_, err := s.execute(ctx, `
		INSERT INTO sections (id, project_id, name, updated_at, deleted_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			sync_status = excluded.sync_status`,
		sec.ID, sec.ProjectID, sec.Name, model.FormatTime(sec.UpdatedAt), timeArg(sec.DeletedAt), string(model.StatusSynced))
	if err != nil {
		return fmt.Errorf("applying remote section %d: %w", sec.ID, err)
	}
	return nil
}
