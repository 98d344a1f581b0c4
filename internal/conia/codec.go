package conia

import (
	"fmt"
	"time"

	"conia-sync/internal/model"
)

// Conversion between entity structs and wire rows. The wire row carries the
// table columns plus the replication envelope minus sync_status, which is
// local bookkeeping and never leaves the device. Decoding is strict about id
// and updated_at (both are needed for last-writer-wins) and lenient about
// everything else.

func encodeProject(p model.Project) Row {
	return Row{
		"id":                 p.ID,
		"name":               p.Name,
		"default_section_id": optionalID(p.DefaultSectionID),
		"updated_at":         model.FormatTime(p.UpdatedAt),
		"deleted_at":         optionalTime(p.DeletedAt),
	}
}

func decodeProject(r Row) (model.Project, error) {
	p := model.Project{SyncStatus: model.StatusSynced}
	var err error
	if p.ID, p.UpdatedAt, err = envelope(r); err != nil {
		return p, err
	}
	p.Name, _ = r.String("name")
	p.DefaultSectionID = optionalIDFrom(r, "default_section_id")
	p.DeletedAt = optionalTimeFrom(r, "deleted_at")
	return p, nil
}

func encodeSection(s model.Section) Row {
	return Row{
		"id":         s.ID,
		"project_id": s.ProjectID,
		"name":       s.Name,
		"updated_at": model.FormatTime(s.UpdatedAt),
		"deleted_at": optionalTime(s.DeletedAt),
	}
}

func decodeSection(r Row) (model.Section, error) {
	s := model.Section{SyncStatus: model.StatusSynced}
	var err error
	if s.ID, s.UpdatedAt, err = envelope(r); err != nil {
		return s, err
	}
	projectID, ok := r.Int64("project_id")
	if !ok {
		return s, fmt.Errorf("section %d has no project_id", s.ID)
	}
	s.ProjectID = projectID
	s.Name, _ = r.String("name")
	s.DeletedAt = optionalTimeFrom(r, "deleted_at")
	return s, nil
}

func encodeTag(t model.Tag) Row {
	return Row{
		"id":         t.ID,
		"name":       t.Name,
		"updated_at": model.FormatTime(t.UpdatedAt),
		"deleted_at": optionalTime(t.DeletedAt),
	}
}

func decodeTag(r Row) (model.Tag, error) {
	t := model.Tag{SyncStatus: model.StatusSynced}
	var err error
	if t.ID, t.UpdatedAt, err = envelope(r); err != nil {
		return t, err
	}
	t.Name, _ = r.String("name")
	t.DeletedAt = optionalTimeFrom(r, "deleted_at")
	return t, nil
}

func encodeTask(t model.Task) Row {
	return Row{
		"id":          t.ID,
		"project_id":  t.ProjectID,
		"section_id":  optionalID(t.SectionID),
		"parent_id":   optionalID(t.ParentID),
		"title":       t.Title,
		"description": t.Description,
		"completed":   t.Completed,
		"is_expanded": t.IsExpanded,
		"updated_at":  model.FormatTime(t.UpdatedAt),
		"deleted_at":  optionalTime(t.DeletedAt),
	}
}

func decodeTask(r Row) (model.Task, error) {
	t := model.Task{SyncStatus: model.StatusSynced}
	var err error
	if t.ID, t.UpdatedAt, err = envelope(r); err != nil {
		return t, err
	}
	projectID, ok := r.Int64("project_id")
	if !ok {
		return t, fmt.Errorf("task %d has no project_id", t.ID)
	}
	t.ProjectID = projectID
	t.SectionID = optionalIDFrom(r, "section_id")
	t.ParentID = optionalIDFrom(r, "parent_id")
	t.Title, _ = r.String("title")
	t.Description, _ = r.String("description")
	t.Completed, _ = r.Bool("completed")
	// Rows from a backend predating the expansion column default to expanded,
	// matching the local schema default.
	if v, ok := r.Bool("is_expanded"); ok {
		t.IsExpanded = v
	} else {
		t.IsExpanded = true
	}
	t.DeletedAt = optionalTimeFrom(r, "deleted_at")
	return t, nil
}

func encodeTaskTagLink(l model.TaskTagLink) Row {
	return Row{"task_id": l.TaskID, "tag_id": l.TagID}
}

func decodeTaskTagLink(r Row) (model.TaskTagLink, error) {
	var l model.TaskTagLink
	taskID, ok := r.Int64("task_id")
	if !ok {
		return l, fmt.Errorf("link row has no task_id")
	}
	tagID, ok := r.Int64("tag_id")
	if !ok {
		return l, fmt.Errorf("link row has no tag_id")
	}
	l.TaskID = taskID
	l.TagID = tagID
	return l, nil
}

// envelope extracts the two mandatory envelope fields from a wire row.
func envelope(r Row) (int64, time.Time, error) {
	id, ok := r.Int64("id")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("row has no id")
	}
	at, ok := r.Time("updated_at")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("row %d has no parsable updated_at", id)
	}
	return id, at, nil
}

func optionalID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func optionalIDFrom(r Row, key string) *int64 {
	if v, ok := r.Int64(key); ok {
		return &v
	}
	return nil
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return model.FormatTime(*t)
}

func optionalTimeFrom(r Row, key string) *time.Time {
	if v, ok := r.Time(key); ok {
		return &v
	}
	return nil
}
