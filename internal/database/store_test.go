package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"conia-sync/internal/conia"
	"conia-sync/internal/model"
)

// stubClock stands in for the wall clock so updated_at values are exact.
// The testutil stub is off limits here (it imports this package).
type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestStore creates an in-memory store with the full schema applied.
func newTestStore(t *testing.T) (*Store, *stubClock) {
	t.Helper()

	clock := &stubClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	store, err := NewStore(":memory:", clock, conia.NewNopLogger())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := store.db.Exec(Schema); err != nil {
		store.Close()
		t.Fatalf("applying schema: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, clock
}

// newLegacyTestStore creates a store whose tasks table predates the
// expansion column.
func newLegacyTestStore(t *testing.T) (*Store, *stubClock) {
	t.Helper()

	store, clock := newTestStore(t)
	if _, err := store.db.Exec(`ALTER TABLE tasks DROP COLUMN is_expanded`); err != nil {
		t.Fatalf("dropping column: %v", err)
	}
	return store, clock
}

func TestStore_CreateProject(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.ID == 0 {
		t.Error("ID not assigned")
	}
	if p.SyncStatus != model.StatusPending {
		t.Errorf("SyncStatus = %s, want pending", p.SyncStatus)
	}
	if !p.UpdatedAt.Equal(model.Truncate(clock.Now())) {
		t.Errorf("UpdatedAt = %v, want the clock time", p.UpdatedAt)
	}

	got, err := store.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got == nil || got.Name != "inbox" {
		t.Errorf("GetProject() = %+v, want inbox", got)
	}

	missing, err := store.GetProject(ctx, 999)
	if err != nil {
		t.Fatalf("GetProject(999) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetProject(999) = %+v, want nil", missing)
	}
}

func TestStore_SoftDeleteProject(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "old")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	clock.advance(time.Minute)
	if err := store.SoftDeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("SoftDeleteProject() error = %v", err)
	}

	live, err := store.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(live) != 0 {
		t.Errorf("live projects = %d, want 0", len(live))
	}

	got, err := store.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.SyncStatus != model.StatusPendingDelete {
		t.Errorf("SyncStatus = %s, want pending_delete", got.SyncStatus)
	}
	if got.DeletedAt == nil || !got.DeletedAt.Equal(model.Truncate(clock.Now())) {
		t.Errorf("DeletedAt = %v, want the deletion time", got.DeletedAt)
	}
	if !got.UpdatedAt.Equal(*got.DeletedAt) {
		t.Error("UpdatedAt not bumped to the deletion time")
	}

	deletes, err := store.PendingDeleteProjects(ctx)
	if err != nil {
		t.Fatalf("PendingDeleteProjects() error = %v", err)
	}
	if len(deletes) != 1 || deletes[0].ID != p.ID {
		t.Errorf("pending deletes = %+v, want the tombstone", deletes)
	}
	pending, err := store.PendingProjects(ctx)
	if err != nil {
		t.Fatalf("PendingProjects() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending projects = %+v, want none", pending)
	}

	// A tombstone cannot be deleted again.
	if err := store.SoftDeleteProject(ctx, p.ID); err == nil {
		t.Error("second SoftDeleteProject() succeeded, want error")
	}
}

func TestStore_ApplyRemoteProject(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	at := model.Truncate(clock.Now())

	t.Run("inserts a new row as synced", func(t *testing.T) {
		err := store.ApplyRemoteProject(ctx, model.Project{ID: 10, Name: "imported", UpdatedAt: at})
		if err != nil {
			t.Fatalf("ApplyRemoteProject() error = %v", err)
		}
		got, err := store.GetProject(ctx, 10)
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if got == nil || got.Name != "imported" || got.SyncStatus != model.StatusSynced {
			t.Errorf("GetProject() = %+v, want imported/synced", got)
		}
	})

	t.Run("overwrites an existing row wholesale", func(t *testing.T) {
		p, err := store.CreateProject(ctx, "local name")
		if err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}
		later := at.Add(time.Hour)
		err = store.ApplyRemoteProject(ctx, model.Project{ID: p.ID, Name: "remote name", UpdatedAt: later})
		if err != nil {
			t.Fatalf("ApplyRemoteProject() error = %v", err)
		}
		got, err := store.GetProject(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if got.Name != "remote name" || !got.UpdatedAt.Equal(later) || got.SyncStatus != model.StatusSynced {
			t.Errorf("GetProject() = %+v, want the remote copy", got)
		}
	})

	t.Run("applies a tombstone", func(t *testing.T) {
		deleted := at.Add(2 * time.Hour)
		err := store.ApplyRemoteProject(ctx, model.Project{ID: 10, Name: "imported", UpdatedAt: deleted, DeletedAt: &deleted})
		if err != nil {
			t.Fatalf("ApplyRemoteProject() error = %v", err)
		}
		got, err := store.GetProject(ctx, 10)
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if got.DeletedAt == nil {
			t.Error("DeletedAt not set")
		}
	})
}

func TestStore_Sections(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	sec, err := store.CreateSection(ctx, p.ID, "today")
	if err != nil {
		t.Fatalf("CreateSection() error = %v", err)
	}
	if sec.ProjectID != p.ID || sec.SyncStatus != model.StatusPending {
		t.Errorf("section = %+v, want pending under project %d", sec, p.ID)
	}

	other, err := store.CreateProject(ctx, "other")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := store.CreateSection(ctx, other.ID, "elsewhere"); err != nil {
		t.Fatalf("CreateSection() error = %v", err)
	}

	sections, err := store.ListSections(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListSections() error = %v", err)
	}
	if len(sections) != 1 || sections[0].ID != sec.ID {
		t.Errorf("ListSections() = %+v, want only %d", sections, sec.ID)
	}

	// The schema enforces the parent reference.
	if _, err := store.CreateSection(ctx, 999, "orphan"); !errors.Is(err, conia.ErrForeignKey) {
		t.Errorf("CreateSection(missing parent) error = %v, want foreign key", err)
	}
}

func TestStore_SetProjectDefaultSection(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	sec, err := store.CreateSection(ctx, p.ID, "today")
	if err != nil {
		t.Fatalf("CreateSection() error = %v", err)
	}
	if err := store.MarkSynced(ctx, "projects", p.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}

	clock.advance(time.Minute)
	if err := store.SetProjectDefaultSection(ctx, p.ID, &sec.ID); err != nil {
		t.Fatalf("SetProjectDefaultSection() error = %v", err)
	}

	got, err := store.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.DefaultSectionID == nil || *got.DefaultSectionID != sec.ID {
		t.Errorf("DefaultSectionID = %v, want %d", got.DefaultSectionID, sec.ID)
	}
	if got.SyncStatus != model.StatusPending {
		t.Errorf("SyncStatus = %s, want pending after the edit", got.SyncStatus)
	}
	if !got.UpdatedAt.Equal(model.Truncate(clock.Now())) {
		t.Error("UpdatedAt not bumped")
	}
}

func TestStore_Tags(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	urgent, err := store.CreateTag(ctx, "urgent")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if _, err := store.CreateTag(ctx, "later"); err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}

	tags, err := store.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags() error = %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "later" || tags[1].Name != "urgent" {
		t.Errorf("ListTags() = %+v, want name order", tags)
	}

	found, err := store.FindTagByName(ctx, "urgent")
	if err != nil {
		t.Fatalf("FindTagByName() error = %v", err)
	}
	if found == nil || found.ID != urgent.ID {
		t.Errorf("FindTagByName() = %+v, want id %d", found, urgent.ID)
	}

	// Tombstoned tags no longer answer to their name.
	clock.advance(time.Minute)
	if err := store.SoftDeleteTag(ctx, urgent.ID); err != nil {
		t.Fatalf("SoftDeleteTag() error = %v", err)
	}
	found, err = store.FindTagByName(ctx, "urgent")
	if err != nil {
		t.Fatalf("FindTagByName() after delete error = %v", err)
	}
	if found != nil {
		t.Errorf("FindTagByName() = %+v, want nil", found)
	}

	missing, err := store.FindTagByName(ctx, "nope")
	if err != nil {
		t.Fatalf("FindTagByName(nope) error = %v", err)
	}
	if missing != nil {
		t.Errorf("FindTagByName(nope) = %+v, want nil", missing)
	}
}

func TestStore_Tasks(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	t.Run("new tasks start pending and expanded", func(t *testing.T) {
		task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "write report"})
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		got, err := store.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("GetTask() error = %v", err)
		}
		if got.Completed || !got.IsExpanded || got.SyncStatus != model.StatusPending {
			t.Errorf("task = %+v, want pending, expanded, not completed", got)
		}
		if got.SectionID != nil || got.ParentID != nil {
			t.Errorf("references = %v/%v, want nil", got.SectionID, got.ParentID)
		}
	})

	t.Run("completion is an edit like any other", func(t *testing.T) {
		task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "done soon"})
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		if err := store.MarkSynced(ctx, "tasks", task.ID); err != nil {
			t.Fatalf("MarkSynced() error = %v", err)
		}
		clock.advance(time.Minute)
		if err := store.CompleteTask(ctx, task.ID, true); err != nil {
			t.Fatalf("CompleteTask() error = %v", err)
		}
		got, err := store.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("GetTask() error = %v", err)
		}
		if !got.Completed || got.SyncStatus != model.StatusPending {
			t.Errorf("task = %+v, want completed and pending again", got)
		}
		if !got.UpdatedAt.Equal(model.Truncate(clock.Now())) {
			t.Error("UpdatedAt not bumped")
		}
	})

	t.Run("expansion state replicates like a field", func(t *testing.T) {
		task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "outline"})
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		if err := store.SetTaskExpanded(ctx, task.ID, false); err != nil {
			t.Fatalf("SetTaskExpanded() error = %v", err)
		}
		got, err := store.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("GetTask() error = %v", err)
		}
		if got.IsExpanded {
			t.Error("IsExpanded = true, want collapsed")
		}
	})

	t.Run("failed rows stay in the pending queue", func(t *testing.T) {
		task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "stuck"})
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		if err := store.MarkFailed(ctx, "tasks", task.ID); err != nil {
			t.Fatalf("MarkFailed() error = %v", err)
		}
		pending, err := store.PendingTasks(ctx)
		if err != nil {
			t.Fatalf("PendingTasks() error = %v", err)
		}
		found := false
		for _, pt := range pending {
			if pt.ID == task.ID {
				found = true
				if pt.SyncStatus != model.StatusFailed {
					t.Errorf("SyncStatus = %s, want failed", pt.SyncStatus)
				}
			}
		}
		if !found {
			t.Error("failed task missing from the pending queue")
		}
	})
}

func TestStore_TaskTags(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "tagged"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	urgent, err := store.CreateTag(ctx, "urgent")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	home, err := store.CreateTag(ctx, "home")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if err := store.MarkSynced(ctx, "tasks", task.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}

	clock.advance(time.Minute)
	if err := store.AddTaskTag(ctx, task.ID, urgent.ID); err != nil {
		t.Fatalf("AddTaskTag() error = %v", err)
	}
	if err := store.AddTaskTag(ctx, task.ID, home.ID); err != nil {
		t.Fatalf("AddTaskTag() error = %v", err)
	}
	// Tagging twice is harmless.
	if err := store.AddTaskTag(ctx, task.ID, urgent.ID); err != nil {
		t.Fatalf("duplicate AddTaskTag() error = %v", err)
	}

	// Membership changes replicate with the task.
	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.SyncStatus != model.StatusPending {
		t.Errorf("task status = %s, want pending after tagging", got.SyncStatus)
	}
	if !got.UpdatedAt.Equal(model.Truncate(clock.Now())) {
		t.Error("UpdatedAt not bumped by tagging")
	}

	tags, err := store.TagsForTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("TagsForTask() error = %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "home" || tags[1].Name != "urgent" {
		t.Errorf("TagsForTask() = %+v, want home then urgent", tags)
	}

	// A tombstoned tag disappears from the set without touching the link.
	if err := store.SoftDeleteTag(ctx, home.ID); err != nil {
		t.Fatalf("SoftDeleteTag() error = %v", err)
	}
	tags, err = store.TagsForTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("TagsForTask() error = %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "urgent" {
		t.Errorf("TagsForTask() = %+v, want just urgent", tags)
	}

	if err := store.RemoveTaskTag(ctx, task.ID, urgent.ID); err != nil {
		t.Fatalf("RemoveTaskTag() error = %v", err)
	}
	if err := store.RemoveTaskTag(ctx, task.ID, urgent.ID); err == nil {
		t.Error("removing an absent link succeeded, want error")
	}
}

func TestStore_ReplaceTaskTagLinks(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "tagged"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	tag, err := store.CreateTag(ctx, "urgent")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if err := store.AddTaskTag(ctx, task.ID, tag.ID); err != nil {
		t.Fatalf("AddTaskTag() error = %v", err)
	}

	// The new set drops the old link, keeps a valid one, and skips one whose
	// task this store has never seen.
	n, err := store.ReplaceTaskTagLinks(ctx, []model.TaskTagLink{
		{TaskID: task.ID, TagID: tag.ID},
		{TaskID: 999, TagID: tag.ID},
	})
	if err != nil {
		t.Fatalf("ReplaceTaskTagLinks() error = %v", err)
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1", n)
	}

	links, err := store.ListTaskTagLinks(ctx)
	if err != nil {
		t.Fatalf("ListTaskTagLinks() error = %v", err)
	}
	if len(links) != 1 || links[0].TaskID != task.ID {
		t.Errorf("links = %+v, want one link on task %d", links, task.ID)
	}
}

func TestStore_Watermark(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	mark, err := store.Watermark(ctx, "projects")
	if err != nil {
		t.Fatalf("Watermark() error = %v", err)
	}
	if !mark.IsZero() {
		t.Errorf("empty table watermark = %v, want zero", mark)
	}

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	mark, err = store.Watermark(ctx, "projects")
	if err != nil {
		t.Fatalf("Watermark() error = %v", err)
	}
	if !mark.Equal(model.Truncate(clock.Now())) {
		t.Errorf("watermark = %v, want the creation time", mark)
	}

	// Soft-deleted rows still count: their deletion stamp is the newest
	// change the store has seen.
	clock.advance(time.Minute)
	if err := store.SoftDeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("SoftDeleteProject() error = %v", err)
	}
	mark, err = store.Watermark(ctx, "projects")
	if err != nil {
		t.Fatalf("Watermark() error = %v", err)
	}
	if !mark.Equal(model.Truncate(clock.Now())) {
		t.Errorf("watermark = %v, want the deletion time", mark)
	}

	if _, err := store.Watermark(ctx, "settings"); err == nil {
		t.Error("Watermark(settings) succeeded, want unknown table error")
	}
}

func TestStore_PurgeCascades(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "doomed"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	tag, err := store.CreateTag(ctx, "urgent")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if err := store.AddTaskTag(ctx, task.ID, tag.ID); err != nil {
		t.Fatalf("AddTaskTag() error = %v", err)
	}

	if err := store.Purge(ctx, "tasks", task.ID); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}

	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got != nil {
		t.Errorf("task survived purge: %+v", got)
	}
	links, err := store.ListTaskTagLinks(ctx)
	if err != nil {
		t.Fatalf("ListTaskTagLinks() error = %v", err)
	}
	if len(links) != 0 {
		t.Errorf("links = %+v, want cascade to remove them", links)
	}
}

func TestStore_CountsByStatus(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateProject(ctx, "one"); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	two, err := store.CreateProject(ctx, "two")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	three, err := store.CreateProject(ctx, "three")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if err := store.MarkSynced(ctx, "projects", two.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	clock.advance(time.Minute)
	if err := store.SoftDeleteProject(ctx, three.ID); err != nil {
		t.Fatalf("SoftDeleteProject() error = %v", err)
	}

	counts, err := store.CountsByStatus(ctx, "projects")
	if err != nil {
		t.Fatalf("CountsByStatus() error = %v", err)
	}
	want := map[model.SyncStatus]int{
		model.StatusPending:       1,
		model.StatusSynced:        1,
		model.StatusPendingDelete: 1,
	}
	for status, n := range want {
		if counts[status] != n {
			t.Errorf("counts[%s] = %d, want %d", status, counts[status], n)
		}
	}
}

func TestStore_Settings(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetSetting(ctx, "last_sync_at")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got != "" {
		t.Errorf("unset setting = %q, want empty", got)
	}

	if err := store.SetSetting(ctx, "last_sync_at", "2024-01-15T10:30:00.000Z"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	if err := store.SetSetting(ctx, "last_sync_at", "2024-01-15T10:45:00.000Z"); err != nil {
		t.Fatalf("overwriting SetSetting() error = %v", err)
	}

	got, err = store.GetSetting(ctx, "last_sync_at")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got != "2024-01-15T10:45:00.000Z" {
		t.Errorf("setting = %q, want the latest value", got)
	}
}

func TestStore_SyncRuns(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	first := &model.SyncRun{RunID: "run-1", Operation: "sync", StartedAt: clock.Now()}
	if err := store.CreateSyncRun(ctx, first); err != nil {
		t.Fatalf("CreateSyncRun() error = %v", err)
	}
	if first.ID == 0 {
		t.Error("run ID not assigned")
	}

	finished := model.Truncate(clock.Now().Add(2 * time.Second))
	first.FinishedAt = &finished
	first.Success = true
	first.Pushed = 3
	first.Pulled = 1
	if err := store.FinishSyncRun(ctx, first); err != nil {
		t.Fatalf("FinishSyncRun() error = %v", err)
	}

	clock.advance(time.Minute)
	second := &model.SyncRun{RunID: "run-2", Operation: "push", StartedAt: clock.Now()}
	if err := store.CreateSyncRun(ctx, second); err != nil {
		t.Fatalf("CreateSyncRun() error = %v", err)
	}

	runs, err := store.ListSyncRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListSyncRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].RunID != "run-2" || runs[1].RunID != "run-1" {
		t.Errorf("order = %s, %s, want newest first", runs[0].RunID, runs[1].RunID)
	}
	if runs[1].FinishedAt == nil || !runs[1].Success || runs[1].Pushed != 3 || runs[1].Pulled != 1 {
		t.Errorf("finished run = %+v, want the recorded outcome", runs[1])
	}
	if runs[0].FinishedAt != nil {
		t.Errorf("open run FinishedAt = %v, want nil", runs[0].FinishedAt)
	}

	limited, err := store.ListSyncRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListSyncRuns(1) error = %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-2" {
		t.Errorf("limited runs = %+v, want just the newest", limited)
	}
}

func TestStore_ImportAll(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	at := model.Truncate(clock.Now())

	stale, err := store.CreateProject(ctx, "stale")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	t.Run("replaces the dataset wholesale", func(t *testing.T) {
		sectionID := int64(4)
		ds := &model.Dataset{
			// The project references a section imported after it; deferred
			// checks make the order irrelevant.
			Projects: []model.Project{{ID: 2, Name: "work", DefaultSectionID: &sectionID, UpdatedAt: at}},
			Sections: []model.Section{{ID: 4, ProjectID: 2, Name: "today", UpdatedAt: at}},
			Tags:     []model.Tag{{ID: 1, Name: "urgent", UpdatedAt: at}},
			Tasks:    []model.Task{{ID: 7, ProjectID: 2, Title: "write report", IsExpanded: true, UpdatedAt: at}},
			TaskTagLinks: []model.TaskTagLink{
				{TaskID: 7, TagID: 1},
			},
		}
		if err := store.ImportAll(ctx, ds); err != nil {
			t.Fatalf("ImportAll() error = %v", err)
		}

		gone, err := store.GetProject(ctx, stale.ID)
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if gone != nil {
			t.Errorf("stale project survived: %+v", gone)
		}
		p, err := store.GetProject(ctx, 2)
		if err != nil {
			t.Fatalf("GetProject(2) error = %v", err)
		}
		if p == nil || p.SyncStatus != model.StatusSynced {
			t.Fatalf("imported project = %+v, want synced", p)
		}
		if p.DefaultSectionID == nil || *p.DefaultSectionID != 4 {
			t.Errorf("DefaultSectionID = %v, want 4", p.DefaultSectionID)
		}
		links, err := store.ListTaskTagLinks(ctx)
		if err != nil {
			t.Fatalf("ListTaskTagLinks() error = %v", err)
		}
		if len(links) != 1 {
			t.Errorf("links = %+v, want 1", links)
		}
	})

	t.Run("an incoherent dataset rolls back", func(t *testing.T) {
		ds := &model.Dataset{
			Tasks: []model.Task{{ID: 9, ProjectID: 42, Title: "floating", UpdatedAt: at}},
		}
		if err := store.ImportAll(ctx, ds); err == nil {
			t.Fatal("ImportAll() succeeded with a dangling reference")
		}

		// The previous dataset survives the failed import.
		p, err := store.GetProject(ctx, 2)
		if err != nil {
			t.Fatalf("GetProject(2) error = %v", err)
		}
		if p == nil {
			t.Error("previous dataset lost after failed import")
		}
	})
}

func TestStore_LegacyTasksSchema(t *testing.T) {
	store, clock := newLegacyTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "plain"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	// Reads fall back to the legacy column set and report the default.
	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got == nil || got.Title != "plain" {
		t.Fatalf("task = %+v, want plain", got)
	}
	if !got.IsExpanded {
		t.Error("IsExpanded = false, want the default")
	}

	// Remote rows are applied without the field the schema cannot hold.
	at := model.Truncate(clock.Now().Add(time.Hour))
	err = store.ApplyRemoteTask(ctx, model.Task{
		ID: 50, ProjectID: p.ID, Title: "from backend", IsExpanded: false, UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("ApplyRemoteTask() error = %v", err)
	}
	applied, err := store.GetTask(ctx, 50)
	if err != nil {
		t.Fatalf("GetTask(50) error = %v", err)
	}
	if applied == nil || applied.Title != "from backend" {
		t.Fatalf("applied task = %+v, want from backend", applied)
	}

	// The one edit the schema cannot express fails with the sentinel.
	if err := store.SetTaskExpanded(ctx, task.ID, false); !errors.Is(err, conia.ErrColumnMissing) {
		t.Errorf("SetTaskExpanded() error = %v, want column missing", err)
	}
}

func TestStore_Renames(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	t.Run("project", func(t *testing.T) {
		p, err := store.CreateProject(ctx, "inbox")
		if err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}
		if err := store.MarkSynced(ctx, "projects", p.ID); err != nil {
			t.Fatalf("MarkSynced() error = %v", err)
		}

		clock.advance(time.Minute)
		if err := store.RenameProject(ctx, p.ID, "archive"); err != nil {
			t.Fatalf("RenameProject() error = %v", err)
		}

		got, err := store.GetProject(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if got.Name != "archive" {
			t.Errorf("Name = %q, want archive", got.Name)
		}
		if got.SyncStatus != model.StatusPending {
			t.Errorf("SyncStatus = %s, want pending after the rename", got.SyncStatus)
		}
		if !got.UpdatedAt.Equal(model.Truncate(clock.Now())) {
			t.Error("UpdatedAt not bumped")
		}

		if err := store.RenameProject(ctx, 999, "nope"); err == nil {
			t.Error("RenameProject(999) error = nil, want not found")
		}
	})

	t.Run("section", func(t *testing.T) {
		p, err := store.CreateProject(ctx, "home")
		if err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}
		sec, err := store.CreateSection(ctx, p.ID, "today")
		if err != nil {
			t.Fatalf("CreateSection() error = %v", err)
		}

		if err := store.RenameSection(ctx, sec.ID, "this week"); err != nil {
			t.Fatalf("RenameSection() error = %v", err)
		}
		got, err := store.GetSection(ctx, sec.ID)
		if err != nil {
			t.Fatalf("GetSection() error = %v", err)
		}
		if got.Name != "this week" {
			t.Errorf("Name = %q, want this week", got.Name)
		}
	})

	t.Run("tag", func(t *testing.T) {
		tag, err := store.CreateTag(ctx, "urgnt")
		if err != nil {
			t.Fatalf("CreateTag() error = %v", err)
		}

		if err := store.RenameTag(ctx, tag.ID, "urgent"); err != nil {
			t.Fatalf("RenameTag() error = %v", err)
		}
		found, err := store.FindTagByName(ctx, "urgent")
		if err != nil {
			t.Fatalf("FindTagByName() error = %v", err)
		}
		if found == nil || found.ID != tag.ID {
			t.Errorf("FindTagByName(urgent) = %+v, want id %d", found, tag.ID)
		}
		stale, err := store.FindTagByName(ctx, "urgnt")
		if err != nil {
			t.Fatalf("FindTagByName(urgnt) error = %v", err)
		}
		if stale != nil {
			t.Errorf("FindTagByName(urgnt) = %+v, want nil", stale)
		}
	})
}

func TestStore_UpdateTask(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "buy milk"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if err := store.MarkSynced(ctx, "tasks", task.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}

	clock.advance(time.Minute)
	if err := store.UpdateTask(ctx, task.ID, "buy oat milk", "the barista kind"); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Title != "buy oat milk" || got.Description != "the barista kind" {
		t.Errorf("task = %q / %q, want the new fields", got.Title, got.Description)
	}
	if got.SyncStatus != model.StatusPending {
		t.Errorf("SyncStatus = %s, want pending after the edit", got.SyncStatus)
	}
	if !got.UpdatedAt.Equal(model.Truncate(clock.Now())) {
		t.Error("UpdatedAt not bumped")
	}

	// Tombstoned tasks cannot be edited back to life.
	if err := store.SoftDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("SoftDeleteTask() error = %v", err)
	}
	if err := store.UpdateTask(ctx, task.ID, "zombie", ""); err == nil {
		t.Error("UpdateTask() on a deleted task error = nil, want not found")
	}
}

func TestStore_SetTaskTags(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	task, err := store.CreateTask(ctx, CreateTaskParams{ProjectID: p.ID, Title: "pack"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	home, err := store.CreateTag(ctx, "home")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	urgent, err := store.CreateTag(ctx, "urgent")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	later, err := store.CreateTag(ctx, "later")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if err := store.AddTaskTag(ctx, task.ID, home.ID); err != nil {
		t.Fatalf("AddTaskTag() error = %v", err)
	}
	if err := store.MarkSynced(ctx, "tasks", task.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}

	clock.advance(time.Minute)
	if err := store.SetTaskTags(ctx, task.ID, []int64{urgent.ID, later.ID}); err != nil {
		t.Fatalf("SetTaskTags() error = %v", err)
	}

	tags, err := store.TagsForTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("TagsForTask() error = %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "later" || tags[1].Name != "urgent" {
		t.Errorf("TagsForTask() = %+v, want later and urgent", tags)
	}
	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.SyncStatus != model.StatusPending {
		t.Errorf("SyncStatus = %s, want pending after the tag change", got.SyncStatus)
	}
	if !got.UpdatedAt.Equal(model.Truncate(clock.Now())) {
		t.Error("UpdatedAt not bumped")
	}

	// A missing tag id rolls the whole replacement back.
	err = store.SetTaskTags(ctx, task.ID, []int64{home.ID, 999})
	if !errors.Is(err, conia.ErrForeignKey) {
		t.Fatalf("SetTaskTags() error = %v, want foreign key violation", err)
	}
	tags, err = store.TagsForTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("TagsForTask() after rollback error = %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "later" || tags[1].Name != "urgent" {
		t.Errorf("TagsForTask() after rollback = %+v, want the previous set", tags)
	}

	// An empty set clears the memberships.
	if err := store.SetTaskTags(ctx, task.ID, nil); err != nil {
		t.Fatalf("SetTaskTags(nil) error = %v", err)
	}
	tags, err = store.TagsForTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("TagsForTask() after clear error = %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("TagsForTask() after clear = %+v, want none", tags)
	}
}

func TestStore_Restore(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	clock.advance(time.Minute)
	if err := store.SoftDeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("SoftDeleteProject() error = %v", err)
	}
	deletedAt := model.Truncate(clock.Now())

	if err := store.Restore(ctx, "projects", p.ID); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	got, err := store.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.DeletedAt != nil {
		t.Errorf("DeletedAt = %v, want nil", got.DeletedAt)
	}
	if got.SyncStatus != model.StatusSynced {
		t.Errorf("SyncStatus = %s, want synced", got.SyncStatus)
	}
	// The restore undoes the tombstone without inventing an edit.
	if !got.UpdatedAt.Equal(deletedAt) {
		t.Errorf("UpdatedAt = %v, want untouched %v", got.UpdatedAt, deletedAt)
	}

	live, err := store.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(live) != 1 {
		t.Errorf("ListProjects() = %+v, want the restored project", live)
	}

	if err := store.Restore(ctx, "settings", 1); err == nil {
		t.Error("Restore(settings) error = nil, want unknown table")
	}
}

func TestStore_ReconnectAfterConnectionLoss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conia.db")
	clock := &stubClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	store, err := NewStore(path, clock, conia.NewNopLogger())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if _, err := store.db.Exec(Schema); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	ctx := context.Background()
	p, err := store.CreateProject(ctx, "inbox")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	// Sever the connection behind the store's back. The next statement
	// fails once, reconnects to the file, and succeeds on the retry.
	store.db.Close()

	got, err := store.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() after connection loss error = %v", err)
	}
	if got == nil || got.Name != "inbox" {
		t.Fatalf("project = %+v, want inbox", got)
	}

	if _, err := store.CreateProject(ctx, "second"); err != nil {
		t.Fatalf("CreateProject() after reconnect error = %v", err)
	}
}
