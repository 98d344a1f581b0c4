package model

import (
	"fmt"
	"time"
)

// SyncStatus is the replication state of a local row.
// Every mutation through a repository resets the row to StatusPending (or
// StatusPendingDelete for soft deletes); the sync engines move rows back to
// StatusSynced once the remote copy is confirmed.
type SyncStatus string

const (
	StatusSynced        SyncStatus = "synced"
	StatusPending       SyncStatus = "pending"
	StatusPendingDelete SyncStatus = "pending_delete"
	StatusFailed        SyncStatus = "failed"
)

// Valid reports whether s is one of the four known statuses.
func (s SyncStatus) Valid() bool {
	switch s {
	case StatusSynced, StatusPending, StatusPendingDelete, StatusFailed:
		return true
	}
	return false
}

// ParseSyncStatus converts a stored string into a SyncStatus.
func ParseSyncStatus(raw string) (SyncStatus, error) {
	s := SyncStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown sync status %q", raw)
	}
	return s, nil
}

// Project groups sections and tasks.
type Project struct {
	ID               int64
	Name             string
	DefaultSectionID *int64 // Section new tasks default into, if set

	UpdatedAt  time.Time
	DeletedAt  *time.Time
	SyncStatus SyncStatus
}

// Section is a named grouping of tasks within a project.
type Section struct {
	ID        int64
	ProjectID int64
	Name      string

	UpdatedAt  time.Time
	DeletedAt  *time.Time
	SyncStatus SyncStatus
}

// Tag labels tasks. Name acts as the natural key when reconciling tag
// membership remotely; local rows are deduplicated only at push time.
type Tag struct {
	ID   int64
	Name string

	UpdatedAt  time.Time
	DeletedAt  *time.Time
	SyncStatus SyncStatus
}

// Task is the central entity. Description carries the outline-format body
// produced and parsed elsewhere; the sync engine treats it as an opaque
// string.
type Task struct {
	ID          int64
	ProjectID   int64
	SectionID   *int64
	ParentID    *int64 // Parent task for subtask trees
	Title       string
	Description string
	Completed   bool
	IsExpanded  bool // UI state, persisted and synced like any other field

	UpdatedAt  time.Time
	DeletedAt  *time.Time
	SyncStatus SyncStatus
}

// TaskTagLink is a pure membership fact between a task and a tag. It carries
// no timestamp and is never versioned independently: sync always replaces the
// whole set.
type TaskTagLink struct {
	TaskID int64
	TagID  int64
}

// Dataset is a complete copy of all syncable rows, used by the full-resync
// import path.
type Dataset struct {
	Projects     []Project
	Sections     []Section
	Tags         []Tag
	Tasks        []Task
	TaskTagLinks []TaskTagLink
}

// SyncRun records one orchestration pass in local history. Runs are local
// bookkeeping and are never pushed or pulled.
type SyncRun struct {
	ID         int64
	RunID      string // UUID correlating log lines to this run
	Operation  string // "push", "pull", "sync" or "resync"
	StartedAt  time.Time
	FinishedAt *time.Time
	Success    bool
	Pushed     int
	Pulled     int
}
