package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"conia-sync/internal/conia"
	"conia-sync/internal/database"
	"conia-sync/internal/model"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// RunDaemon syncs once immediately, then repeats on the configured cron
// schedule until ctx is canceled. Overlapping runs are skipped rather than
// queued, keeping the one-caller-at-a-time rule.
func (a *SyncApp) RunDaemon(ctx context.Context) error {
	expr := a.cfg.Sync.Schedule
	if expr == "" {
		expr = "*/15 * * * *"
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("parsing sync schedule %q: %w", expr, err)
	}

	a.logger.Info("daemon starting", "schedule", expr)
	a.runScheduledSync(ctx)

	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{a.logger})),
	)
	if _, err := c.AddFunc(expr, func() { a.runScheduledSync(ctx) }); err != nil {
		return fmt.Errorf("scheduling sync: %w", err)
	}
	c.Start()

	<-ctx.Done()
	a.logger.Info("daemon stopping")
	<-c.Stop().Done()
	return nil
}

// runScheduledSync runs one full sync and records its completion time in
// settings.
func (a *SyncApp) runScheduledSync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res := a.service.SyncAll(ctx)
	if err := res.Err(); err != nil {
		a.logger.Error("scheduled sync finished with failures", "run_id", res.RunID, "error", err)
	} else {
		a.logger.Info("scheduled sync finished", "run_id", res.RunID, "synced", res.TotalSynced)
	}

	now := model.FormatTime(model.Truncate(time.Now().UTC()))
	if err := a.store.SetSetting(ctx, database.SettingLastSyncAt, now); err != nil {
		a.logger.Warn("recording last sync time", "error", err)
	}
}

// cronLogger adapts conia.Logger to the cron scheduler's logger interface.
// Scheduler chatter, skip notices included, goes to debug; errors keep their
// level.
type cronLogger struct {
	l conia.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
