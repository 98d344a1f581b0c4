package conia

import (
	"context"

	"conia-sync/internal/model"
)

// SyncService is the orchestration layer that keeps the local store and the
// remote backend consistent. All passes run sequentially on the caller's
// goroutine; the service holds no locks and expects a single caller at a
// time.
type SyncService struct {
	local     LocalStore
	remote    RemoteStore
	snapshots SnapshotStore
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewSyncService creates a new SyncService with the provided dependencies.
func NewSyncService(local LocalStore, remote RemoteStore, snapshots SnapshotStore, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *SyncService {
	return &SyncService{
		local:     local,
		remote:    remote,
		snapshots: snapshots,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// PushAll replicates local pending changes to the backend, table by table in
// dependency order. Failures are recorded per table and per row; the pass
// always runs to completion.
func (s *SyncService) PushAll(ctx context.Context) *SyncResult {
	run := s.beginRun(ctx, "push")
	res := s.push(ctx, run.RunID)
	s.endRun(ctx, run, res.Success, res.TotalSynced, 0)
	return res
}

// PullAll applies remote changes newer than each table's local watermark.
// Failures are recorded per table; the pass always runs to completion.
func (s *SyncService) PullAll(ctx context.Context) *SyncResult {
	run := s.beginRun(ctx, "pull")
	res := s.pull(ctx, run.RunID)
	s.endRun(ctx, run, res.Success, 0, res.TotalSynced)
	return res
}

// SyncAll pushes then pulls in one run. Pushing first gets local edits onto
// the backend before the pull decides conflicts, so a row edited on this
// device cannot be silently overwritten by a stale remote copy.
func (s *SyncService) SyncAll(ctx context.Context) *SyncResult {
	run := s.beginRun(ctx, "sync")
	res := s.push(ctx, run.RunID)
	pushed := res.TotalSynced
	res.merge(s.pull(ctx, run.RunID))
	s.endRun(ctx, run, res.Success, pushed, res.TotalSynced-pushed)
	return res
}

// beginRun mints a run ID and opens a history record for it. History is
// best-effort: a store that cannot record runs still syncs.
func (s *SyncService) beginRun(ctx context.Context, operation string) *model.SyncRun {
	run := &model.SyncRun{
		RunID:     s.idgen.New(),
		Operation: operation,
		StartedAt: s.clock.Now(),
	}
	if err := s.local.CreateSyncRun(ctx, run); err != nil {
		s.logger.Warn("recording sync run", "operation", operation, "error", err)
	}
	return run
}

func (s *SyncService) endRun(ctx context.Context, run *model.SyncRun, success bool, pushed, pulled int) {
	now := s.clock.Now()
	run.FinishedAt = &now
	run.Success = success
	run.Pushed = pushed
	run.Pulled = pulled
	if run.ID == 0 {
		return
	}
	if err := s.local.FinishSyncRun(ctx, run); err != nil {
		s.logger.Warn("finalizing sync run", "run_id", run.RunID, "error", err)
	}
}
