package database

import (
	"context"
	"database/sql"
	"fmt"

	"conia-sync/internal/model"
)

func scanSyncRun(sc scanner) (model.SyncRun, error) {
	var run model.SyncRun
	var started string
	var finished sql.NullString
	if err := sc.Scan(&run.ID, &run.RunID, &run.Operation, &started, &finished,
		&run.Success, &run.Pushed, &run.Pulled); err != nil {
		return run, err
	}
	var err error
	if run.StartedAt, err = model.ParseTime(started); err != nil {
		return run, fmt.Errorf("sync run %d: %w", run.ID, err)
	}
	if run.FinishedAt, err = nullTime(finished); err != nil {
		return run, fmt.Errorf("sync run %d: %w", run.ID, err)
	}
	return run, nil
}

// CreateSyncRun inserts a run record and fills in its row id.
func (s *Store) CreateSyncRun(ctx context.Context, run *model.SyncRun) error {
	id, err := s.executeInsert(ctx,
		`INSERT INTO sync_runs (run_id, operation, started_at) VALUES (?, ?, ?)`,
		run.RunID, run.Operation, model.FormatTime(run.StartedAt))
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	run.ID = id
	return nil
}

// FinishSyncRun stores the run's final outcome.
func (s *Store) FinishSyncRun(ctx context.Context, run *model.SyncRun) error {
	res, err := s.execute(ctx,
		`UPDATE sync_runs SET finished_at = ?, success = ?, pushed = ?, pulled = ? WHERE id = ?`,
		timeArg(run.FinishedAt), run.Success, run.Pushed, run.Pulled, run.ID)
	if err != nil {
		return fmt.Errorf("finishing sync run %d: %w", run.ID, err)
	}
	return requireAffected(res, "sync run", run.ID)
}

// ListSyncRuns returns the most recent runs, newest first.
func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	var out []model.SyncRun
	err := s.queryAll(ctx, `
		SELECT id, run_id, operation, started_at, finished_at, success, pushed, pulled
		FROM sync_runs ORDER BY id DESC LIMIT ?`, []any{limit}, func(rows *sql.Rows) error {
		out = out[:0]
		for rows.Next() {
			run, err := scanSyncRun(rows)
			if err != nil {
				return err
			}
			out = append(out, run)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	return out, nil
}
