package conia

import (
	"context"
	"time"

	"conia-sync/internal/model"
)

// LocalStore is the sync engine's view of the embedded database. Pending
// queries see only live rows, pending-delete queries only soft-deleted ones,
// and apply methods overwrite whatever is local because the caller has
// already decided the remote copy wins.
type LocalStore interface {
	// Watermark returns the newest updated_at in the table, including
	// soft-deleted rows, or the zero time when the table is empty.
	Watermark(ctx context.Context, table string) (time.Time, error)

	// MarkSynced sets the row's sync_status to synced without touching
	// updated_at.
	MarkSynced(ctx context.Context, table string, id int64) error

	// MarkFailed sets the row's sync_status to failed without touching
	// updated_at.
	MarkFailed(ctx context.Context, table string, id int64) error

	// Purge hard-deletes the row. Used once a soft delete has been
	// acknowledged by the backend.
	Purge(ctx context.Context, table string, id int64) error

	// PendingProjects returns live projects whose sync_status is not synced.
	PendingProjects(ctx context.Context) ([]model.Project, error)
	// PendingDeleteProjects returns soft-deleted projects awaiting a remote
	// delete.
	PendingDeleteProjects(ctx context.Context) ([]model.Project, error)
	// ApplyRemoteProject upserts a remote project copy and marks it synced.
	ApplyRemoteProject(ctx context.Context, p model.Project) error

	// PendingSections returns live sections whose sync_status is not synced.
	PendingSections(ctx context.Context) ([]model.Section, error)
	// PendingDeleteSections returns soft-deleted sections awaiting a remote
	// delete.
	PendingDeleteSections(ctx context.Context) ([]model.Section, error)
	// ApplyRemoteSection upserts a remote section copy and marks it synced.
	ApplyRemoteSection(ctx context.Context, s model.Section) error

	// PendingTags returns live tags whose sync_status is not synced.
	PendingTags(ctx context.Context) ([]model.Tag, error)
	// PendingDeleteTags returns soft-deleted tags awaiting a remote delete.
	PendingDeleteTags(ctx context.Context) ([]model.Tag, error)
	// ApplyRemoteTag upserts a remote tag copy and marks it synced.
	ApplyRemoteTag(ctx context.Context, t model.Tag) error

	// PendingTasks returns live tasks whose sync_status is not synced.
	PendingTasks(ctx context.Context) ([]model.Task, error)
	// PendingDeleteTasks returns soft-deleted tasks awaiting a remote delete.
	PendingDeleteTasks(ctx context.Context) ([]model.Task, error)
	// ApplyRemoteTask upserts a remote task copy and marks it synced. When
	// the backend row predates a local schema migration the narrower column
	// set is written instead.
	ApplyRemoteTask(ctx context.Context, t model.Task) error

	// TagsForTask returns the live tags attached to a task, by link table.
	TagsForTask(ctx context.Context, taskID int64) ([]model.Tag, error)

	// ListTaskTagLinks returns every task-tag link.
	ListTaskTagLinks(ctx context.Context) ([]model.TaskTagLink, error)

	// ReplaceTaskTagLinks swaps the entire link table for the given set
	// inside one transaction. Links that would violate a foreign key are
	// skipped. Returns the number of links inserted.
	ReplaceTaskTagLinks(ctx context.Context, links []model.TaskTagLink) (int, error)

	// ImportAll replaces the full local dataset inside one transaction with
	// foreign key enforcement deferred, so arrival order does not matter.
	// Every imported row is marked synced.
	ImportAll(ctx context.Context, ds *model.Dataset) error

	// CountsByStatus returns per-status row counts for one table.
	CountsByStatus(ctx context.Context, table string) (map[model.SyncStatus]int, error)

	// GetSetting returns the stored value for key, or "" when unset.
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting stores a key-value pair, overwriting any previous value.
	SetSetting(ctx context.Context, key, value string) error

	// CreateSyncRun inserts a run record and fills in its ID.
	CreateSyncRun(ctx context.Context, run *model.SyncRun) error

	// FinishSyncRun updates the run record with its final outcome.
	FinishSyncRun(ctx context.Context, run *model.SyncRun) error

	// ListSyncRuns returns the most recent runs, newest first.
	ListSyncRuns(ctx context.Context, limit int) ([]model.SyncRun, error)

	// BackupTo writes a consistent copy of the database file to path.
	BackupTo(ctx context.Context, path string) error

	// Close releases the underlying connection.
	Close() error
}
