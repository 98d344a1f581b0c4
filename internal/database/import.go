package database

import (
	"context"
	"database/sql"
	"fmt"

	"conia-sync/internal/model"
)

// ImportAll replaces the entire local dataset with ds in one transaction.
// Foreign key checks are deferred to the commit, so rows can be written in
// any order; if the assembled dataset is incoherent the commit fails and the
// previous dataset survives untouched. Every imported row lands as synced.
func (s *Store) ImportAll(ctx context.Context, ds *model.Dataset) error {
	err := s.transact(ctx, func(tx *sql.Tx) error {
		// Connection-scoped and reset automatically at commit or rollback.
		if _, err := tx.ExecContext(ctx, `PRAGMA defer_foreign_keys = ON`); err != nil {
			return fmt.Errorf("deferring foreign keys: %w", err)
		}

		for _, stmt := range []string{
			`DELETE FROM task_tag_links`,
			`DELETE FROM tasks`,
			`DELETE FROM tags`,
			`DELETE FROM sections`,
			`DELETE FROM projects`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clearing table: %w", err)
			}
		}

		for _, p := range ds.Projects {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO projects (id, name, default_section_id, updated_at, deleted_at, sync_status)
				VALUES (?, ?, ?, ?, ?, ?)`,
				p.ID, p.Name, idArg(p.DefaultSectionID), model.FormatTime(p.UpdatedAt), timeArg(p.DeletedAt), string(model.StatusSynced))
			if err != nil {
				return fmt.Errorf("importing project %d: %w", p.ID, err)
			}
		}
		for _, sec := range ds.Sections {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sections (id, project_id, name, updated_at, deleted_at, sync_status)
				VALUES (?, ?, ?, ?, ?, ?)`,
				sec.ID, sec.ProjectID, sec.Name, model.FormatTime(sec.UpdatedAt), timeArg(sec.DeletedAt), string(model.StatusSynced))
			if err != nil {
				return fmt.Errorf("importing section %d: %w", sec.ID, err)
			}
		}
		for _, t := range ds.Tags {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tags (id, name, updated_at, deleted_at, sync_status)
				VALUES (?, ?, ?, ?, ?)`,
				t.ID, t.Name, model.FormatTime(t.UpdatedAt), timeArg(t.DeletedAt), string(model.StatusSynced))
			if err != nil {
				return fmt.Errorf("importing tag %d: %w", t.ID, err)
			}
		}
		for _, t := range ds.Tasks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tasks (id, project_id, section_id, parent_id, title, description, completed, is_expanded, updated_at, deleted_at, sync_status)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.ProjectID, idArg(t.SectionID), idArg(t.ParentID), t.Title, t.Description,
				t.Completed, t.IsExpanded, model.FormatTime(t.UpdatedAt), timeArg(t.DeletedAt), string(model.StatusSynced))
			if err != nil {
				return fmt.Errorf("importing task %d: %w", t.ID, err)
			}
		}
		for _, l := range ds.TaskTagLinks {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO task_tag_links (task_id, tag_id) VALUES (?, ?)`, l.TaskID, l.TagID)
			if err != nil {
				return fmt.Errorf("importing link %d-%d: %w", l.TaskID, l.TagID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("importing dataset: %w", err)
	}
	return nil
}
