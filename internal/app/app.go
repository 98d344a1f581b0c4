package app

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"conia-sync/internal/conia"
	"conia-sync/internal/config"
	"conia-sync/internal/database"
	"conia-sync/internal/encryption"
	"conia-sync/internal/model"
	"conia-sync/internal/remote"
	"conia-sync/internal/snapshot"
)

// SyncApp is the application layer between the CLI and SyncService.
// It constructs all dependencies from config, exposes high-level operations,
// and manages the store lifecycle on Close.
type SyncApp struct {
	cfg       *config.Config
	store     *database.Store
	remote    conia.RemoteStore
	snapshots conia.SnapshotStore
	encryptor conia.Encryptor
	service   *conia.SyncService
	logger    conia.Logger
	logFile   *os.File
}

// NewSyncApp creates a fully wired SyncApp from the given config.
// operation identifies the CLI command being run (e.g. "push", "daemon") and
// prefixes every log line of this invocation. The caller must call Close
// when done.
func NewSyncApp(ctx context.Context, cfg *config.Config, operation string) (*SyncApp, error) {
	invocation := operation + "-" + time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, invocation)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	store, err := database.NewStoreFromConfig(cfg.Database, conia.RealClock{}, adapter)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("store schema out of date, run `conia-sync migrate`: %w", err)
	}

	remoteStore, err := remote.NewRemoteFromConfig(cfg.Remote, adapter)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating remote client: %w", err)
	}

	snapshots, err := snapshot.NewSnapshotStoreFromConfig(ctx, snapshotConfig(cfg))
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating snapshot store: %w", err)
	}

	encryptor, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	svc := conia.NewSyncService(store, remoteStore, snapshots, encryptor, adapter, conia.RealClock{}, conia.UUIDGenerator{})

	return &SyncApp{
		cfg:       cfg,
		store:     store,
		remote:    remoteStore,
		snapshots: snapshots,
		encryptor: encryptor,
		service:   svc,
		logger:    adapter,
		logFile:   logFile,
	}, nil
}

// Push replicates local pending changes to the backend.
func (a *SyncApp) Push(ctx context.Context) *conia.SyncResult {
	return a.service.PushAll(ctx)
}

// Pull applies remote changes newer than the local watermarks.
func (a *SyncApp) Pull(ctx context.Context) *conia.SyncResult {
	return a.service.PullAll(ctx)
}

// Sync pushes then pulls in a single run.
func (a *SyncApp) Sync(ctx context.Context) *conia.SyncResult {
	return a.service.SyncAll(ctx)
}

// Resync rebuilds the local dataset from a complete remote fetch. The import
// replaces the current local data, so unless skipSnapshot is set a snapshot
// is taken first and a snapshot failure aborts the resync.
func (a *SyncApp) Resync(ctx context.Context, skipSnapshot bool) (*conia.SyncResult, error) {
	if !skipSnapshot {
		if _, err := a.service.SaveSnapshot(ctx); err != nil {
			return nil, fmt.Errorf("snapshot before resync: %w (pass --skip-snapshot to proceed without one)", err)
		}
	}
	return a.service.FullResync(ctx), nil
}

// Status reports per-table replication state from the local store only.
func (a *SyncApp) Status(ctx context.Context) (*conia.StatusReport, error) {
	return a.service.Status(ctx)
}

// History returns the most recent sync runs, newest first.
func (a *SyncApp) History(ctx context.Context, limit int) ([]model.SyncRun, error) {
	return a.service.History(ctx, limit)
}

// SaveSnapshot captures, encrypts, and uploads a snapshot of the local
// database. Returns the stored name.
func (a *SyncApp) SaveSnapshot(ctx context.Context) (string, error) {
	return a.service.SaveSnapshot(ctx)
}

// ListSnapshots returns the stored snapshots, oldest first.
func (a *SyncApp) ListSnapshots(ctx context.Context) ([]conia.SnapshotInfo, error) {
	return a.service.ListSnapshots(ctx)
}

// CreateProject registers a new project in pending state.
func (a *SyncApp) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	return a.store.CreateProject(ctx, name)
}

// ListProjects returns the live projects.
func (a *SyncApp) ListProjects(ctx context.Context) ([]model.Project, error) {
	return a.store.ListProjects(ctx)
}

// DeleteProject tombstones a project for the next push.
func (a *SyncApp) DeleteProject(ctx context.Context, id int64) error {
	return a.store.SoftDeleteProject(ctx, id)
}

// CreateSection registers a new section under the given project.
func (a *SyncApp) CreateSection(ctx context.Context, projectID int64, name string) (*model.Section, error) {
	return a.store.CreateSection(ctx, projectID, name)
}

// ListSections returns the live sections of one project.
func (a *SyncApp) ListSections(ctx context.Context, projectID int64) ([]model.Section, error) {
	return a.store.ListSections(ctx, projectID)
}

// CreateTag registers a new tag in pending state.
func (a *SyncApp) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	return a.store.CreateTag(ctx, name)
}

// ListTags returns the live tags.
func (a *SyncApp) ListTags(ctx context.Context) ([]model.Tag, error) {
	return a.store.ListTags(ctx)
}

// CreateTask registers a new task in pending state.
func (a *SyncApp) CreateTask(ctx context.Context, params database.CreateTaskParams) (*model.Task, error) {
	return a.store.CreateTask(ctx, params)
}

// ListTasks returns the live tasks of one project.
func (a *SyncApp) ListTasks(ctx context.Context, projectID int64) ([]model.Task, error) {
	return a.store.ListTasks(ctx, projectID)
}

// CompleteTask marks a task done or not done.
func (a *SyncApp) CompleteTask(ctx context.Context, id int64, completed bool) error {
	return a.store.CompleteTask(ctx, id, completed)
}

// DeleteTask tombstones a task for the next push.
func (a *SyncApp) DeleteTask(ctx context.Context, id int64) error {
	return a.store.SoftDeleteTask(ctx, id)
}

// TagTask attaches a tag to a task, creating the tag when it does not exist
// yet.
func (a *SyncApp) TagTask(ctx context.Context, taskID int64, tagName string) error {
	tag, err := a.store.FindTagByName(ctx, tagName)
	if err != nil {
		return fmt.Errorf("finding tag %q: %w", tagName, err)
	}
	if tag == nil {
		if tag, err = a.store.CreateTag(ctx, tagName); err != nil {
			return fmt.Errorf("creating tag %q: %w", tagName, err)
		}
	}
	return a.store.AddTaskTag(ctx, taskID, tag.ID)
}

// UntagTask detaches a tag from a task.
func (a *SyncApp) UntagTask(ctx context.Context, taskID int64, tagName string) error {
	tag, err := a.store.FindTagByName(ctx, tagName)
	if err != nil {
		return fmt.Errorf("finding tag %q: %w", tagName, err)
	}
	if tag == nil {
		return fmt.Errorf("tag %q not found", tagName)
	}
	return a.store.RemoveTaskTag(ctx, taskID, tag.ID)
}

// TagsForTask returns the live tags attached to a task.
func (a *SyncApp) TagsForTask(ctx context.Context, taskID int64) ([]model.Tag, error) {
	return a.store.TagsForTask(ctx, taskID)
}

// Close releases the store and the log file.
func (a *SyncApp) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// RunMigrations opens the store and applies pending schema migrations. It
// skips the version check NewSyncApp performs, since the point is to bring an
// out-of-date store up to the current version.
func RunMigrations(cfg *config.Config) error {
	invocation := "migrate-" + time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, invocation)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logFile.Close()
	adapter := &slogAdapter{l: logger}

	store, err := database.NewStoreFromConfig(cfg.Database, conia.RealClock{}, adapter)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}
	adapter.Info("migrations applied")
	return nil
}

// snapshotConfig returns the snapshot sub-config with S3 keys namespaced
// under the device id, so devices sharing a bucket never clobber each
// other's snapshots. Filesystem stores are per-device already.
func snapshotConfig(cfg *config.Config) config.SnapshotConfig {
	sc := cfg.Snapshot
	if sc.Type == "s3" && cfg.DeviceID != "" {
		sc.Prefix = path.Join(sc.Prefix, cfg.DeviceID)
	}
	return sc
}

// SetupKeys generates the snapshot encryption key pair without opening the
// live store, so it works before the first migration. Refuses to overwrite
// existing keys.
func SetupKeys(cfg *config.Config, passphrase string) error {
	encryptor, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if encryptor.IsConfigured() {
		return fmt.Errorf("encryption keys already exist")
	}
	return encryptor.Setup(passphrase)
}
