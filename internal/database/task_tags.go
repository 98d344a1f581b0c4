package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"conia-sync/internal/conia"
	"conia-sync/internal/model"
)

// AddTaskTag attaches a tag to a task. The task itself goes back to pending:
// membership has no timestamps of its own and replicates with the task.
func (s *Store) AddTaskTag(ctx context.Context, taskID, tagID int64) error {
	now := model.Truncate(s.clock.Now())
	err := s.transact(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_tag_links (task_id, tag_id) VALUES (?, ?) ON CONFLICT(task_id, tag_id) DO NOTHING`,
			taskID, tagID); err != nil {
			return fmt.Errorf("inserting link: %w", err)
		}
		return touchTask(ctx, tx, taskID, now)
	})
	if err != nil {
		return fmt.Errorf("tagging task %d: %w", taskID, err)
	}
	return nil
}

// RemoveTaskTag detaches a tag from a task and sends the task back to
// pending.
func (s *Store) RemoveTaskTag(ctx context.Context, taskID, tagID int64) error {
	now := model.Truncate(s.clock.Now())
	err := s.transact(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM task_tag_links WHERE task_id = ? AND tag_id = ?`, taskID, tagID)
		if err != nil {
			return fmt.Errorf("deleting link: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reading affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("task %d does not carry tag %d", taskID, tagID)
		}
		return touchTask(ctx, tx, taskID, now)
	})
	if err != nil {
		return fmt.Errorf("untagging task %d: %w", taskID, err)
	}
	return nil
}

// SetTaskTags replaces a task's whole tag set in one transaction and sends
// the task back to pending. Every tag id must exist.
func (s *Store) SetTaskTags(ctx context.Context, taskID int64, tagIDs []int64) error {
	now := model.Truncate(s.clock.Now())
	err := s.transact(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM task_tag_links WHERE task_id = ?`, taskID); err != nil {
			return fmt.Errorf("clearing links: %w", err)
		}
		for _, tagID := range tagIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO task_tag_links (task_id, tag_id) VALUES (?, ?) ON CONFLICT(task_id, tag_id) DO NOTHING`,
				taskID, tagID); err != nil {
				return fmt.Errorf("inserting link to tag %d: %w", tagID, err)
			}
		}
		return touchTask(ctx, tx, taskID, now)
	})
	if err != nil {
		return fmt.Errorf("setting tags for task %d: %w", taskID, err)
	}
	return nil
}

func touchTask(ctx context.Context, tx *sql.Tx, taskID int64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL`,
		model.FormatTime(now), string(model.StatusPending), taskID)
	if err != nil {
		return fmt.Errorf("touching task: %w", err)
	}
	return requireAffected(res, "task", taskID)
}

// TagsForTask returns the live tags attached to a task, ordered by name.
func (s *Store) TagsForTask(ctx context.Context, taskID int64) ([]model.Tag, error) {
	var out []model.Tag
	err := s.queryAll(ctx, `
		SELECT t.id, t.name, t.updated_at, t.deleted_at, t.sync_status
		FROM tags t
		JOIN task_tag_links l ON l.tag_id = t.id
		WHERE l.task_id = ? AND t.deleted_at IS NULL
		ORDER BY t.name, t.id`, []any{taskID}, func(rows *sql.Rows) error {
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
		return nil, fmt.Errorf("listing tags for task %d: %w", taskID, err)
	}
	return out, nil
}

// ListTaskTagLinks returns every link row in a stable order.
func (s *Store) ListTaskTagLinks(ctx context.Context) ([]model.TaskTagLink, error) {
	var out []model.TaskTagLink
	err := s.queryAll(ctx,
		`SELECT task_id, tag_id FROM task_tag_links ORDER BY task_id, tag_id`, nil, func(rows *sql.Rows) error {
			out = out[:0]
			for rows.Next() {
				var l model.TaskTagLink
				if err := rows.Scan(&l.TaskID, &l.TagID); err != nil {
					return err
				}
				out = append(out, l)
			}
			return rows.Err()
		})
	if err != nil {
		return nil, fmt.Errorf("listing task tag links: %w", err)
	}
	return out, nil
}

// ReplaceTaskTagLinks swaps the whole link table for the given set in one
// transaction. Links pointing at tasks or tags this store does not have yet
// are skipped with a warning; they come around again on the next pull once
// their targets exist. Returns the number of links inserted.
func (s *Store) ReplaceTaskTagLinks(ctx context.Context, links []model.TaskTagLink) (int, error) {
	inserted := 0
	err := s.transact(ctx, func(tx *sql.Tx) error {
		inserted = 0
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_tag_links`); err != nil {
			return fmt.Errorf("clearing links: %w", err)
		}
		for _, l := range links {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO task_tag_links (task_id, tag_id) VALUES (?, ?) ON CONFLICT(task_id, tag_id) DO NOTHING`,
				l.TaskID, l.TagID)
			if err != nil {
				if errors.Is(classify(err), conia.ErrForeignKey) {
					s.logger.Warn("skipping link with missing target", "task_id", l.TaskID, "tag_id", l.TagID)
					continue
				}
				return fmt.Errorf("inserting link %d-%d: %w", l.TaskID, l.TagID, err)
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("replacing task tag links: %w", err)
	}
	return inserted, nil
}
