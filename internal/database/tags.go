package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conia-sync/internal/model"
)

const tagColumns = `id, name, updated_at, deleted_at, sync_status`

func scanTag(sc scanner) (model.Tag, error) {
	var t model.Tag
	var updated string
	var deleted sql.NullString
	var status string
	if err := sc.Scan(&t.ID, &t.Name, &updated, &deleted, &status); err != nil {
		return t, err
	}
	var err error
	if t.UpdatedAt, err = model.ParseTime(updated); err != nil {
		return t, fmt.Errorf("tag %d: %w", t.ID, err)
	}
	if t.DeletedAt, err = nullTime(deleted); err != nil {
		return t, fmt.Errorf("tag %d: %w", t.ID, err)
	}
	if t.SyncStatus, err = model.ParseSyncStatus(status); err != nil {
		return t, fmt.Errorf("tag %d: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) listTags(ctx context.Context, where string, args ...any) ([]model.Tag, error) {
	var out []model.Tag
	err := s.queryAll(ctx, `SELECT `+tagColumns+` FROM tags `+where, args, func(rows *sql.Rows) error {
		out = out[:0]
		for rows.Next() {
			t, err := scanTag(rows)
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

// CreateTag inserts a new tag in pending state. Names are not unique
// locally; duplicates are reconciled by name when pushed.
func (s *Store) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	now := model.Truncate(s.clock.Now())
	id, err := s.executeInsert(ctx,
		`INSERT INTO tags (name, updated_at, sync_status) VALUES (?, ?, ?)`,
		name, model.FormatTime(now), string(model.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	return &model.Tag{
		ID:         id,
		Name:       name,
		UpdatedAt:  now,
		SyncStatus: model.StatusPending,
	}, nil
}

// GetTag returns the tag with the given id, or nil when absent.
func (s *Store) GetTag(ctx context.Context, id int64) (*model.Tag, error) {
	var t model.Tag
	err := s.queryOne(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, []any{id}, func(row *sql.Row) error {
		var err error
		t, err = scanTag(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding tag %d: %w", id, err)
	}
	return &t, nil
}

// FindTagByName returns the first live tag with the given name, or nil when
// none exists.
func (s *Store) FindTagByName(ctx context.Context, name string) (*model.Tag, error) {
	out, err := s.listTags(ctx,
		`WHERE name = ? AND deleted_at IS NULL ORDER BY id LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("finding tag %q: %w", name, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// ListTags returns the live tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]model.Tag, error) {
	out, err := s.listTags(ctx, `WHERE deleted_at IS NULL ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return out, nil
}

// RenameTag gives a live tag a new name and sends it back to pending. The
// next push reconciles task memberships under the new name.
func (s *Store) RenameTag(ctx context.Context, id int64, name string) error {
	now := model.Truncate(s.clock.Now())
	res, err := s.execute(ctx,
		`UPDATE tags SET name = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		name, model.FormatTime(now), string(model.StatusPending), id)
	if err != nil {
		return fmt.Errorf("renaming tag %d: %w", id, err)
	}
	return requireAffected(res, "tag", id)
}

// SoftDeleteTag tombstones a live tag for the next push.
func (s *Store) SoftDeleteTag(ctx context.Context, id int64) error {
	now := model.Truncate(s.clock.Now())
	stamp := model.FormatTime(now)
	res, err := s.execute(ctx,
		`UPDATE tags SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		stamp, stamp, string(model.StatusPendingDelete), id)
	if err != nil {
		return fmt.Errorf("deleting tag %d: %w", id, err)
	}
	return requireAffected(res, "tag", id)
}

// PendingTags returns live tags whose sync_status is not synced.
func (s *Store) PendingTags(ctx context.Context) ([]model.Tag, error) {
	out, err := s.listTags(ctx,
		`WHERE sync_status != ? AND deleted_at IS NULL ORDER BY id`, string(model.StatusSynced))
	if err != nil {
		return nil, fmt.Errorf("listing pending tags: %w", err)
	}
	return out, nil
}

// PendingDeleteTags returns tags tombstoned locally but not yet deleted
// remotely.
func (s *Store) PendingDeleteTags(ctx context.Context) ([]model.Tag, error) {
	out, err := s.listTags(ctx,
		`WHERE sync_status = ? ORDER BY id`, string(model.StatusPendingDelete))
	if err != nil {
		return nil, fmt.Errorf("listing deleted tags: %w", err)
	}
	return out, nil
}

// ApplyRemoteTag overwrites the local copy with the backend's and marks it
// synced.
func (s *Store) ApplyRemoteTag(ctx context.Context, t model.Tag) error {
	_, err := s.execute(ctx, `
		INSERT INTO tags (id, name, updated_at, deleted_at, sync_status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			sync_status = excluded.sync_status`,
		t.ID, t.Name, model.FormatTime(t.UpdatedAt), timeArg(t.DeletedAt), string(model.StatusSynced))
	if err != nil {
		return fmt.Errorf("applying remote tag %d: %w", t.ID, err)
	}
	return nil
}
