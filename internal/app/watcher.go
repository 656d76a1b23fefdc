package app

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
	"github.com/kapu/channelwatch-go/internal/service"
)

const snapshotCacheTTL = 24 * time.Hour

// Watcher drives the collect -> compare -> analyze cycle for the configured
// channels.
type Watcher struct {
	container *Container
	logger    *zap.Logger
}

func (c *Container) NewWatcher() *Watcher {
	return &Watcher{container: c, logger: c.Logger}
}

// Start runs cycles until the context is cancelled. In one-shot mode a single
// cycle runs and Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	cfg := w.container.Config

	w.RunCycle(ctx)
	if !cfg.Watcher.Daemon {
		return nil
	}

	ticker := time.NewTicker(cfg.Watcher.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.RunCycle(ctx)
		}
	}
}

// RunCycle processes every watched channel. A failed channel is logged and
// skipped so one bad channel cannot starve the rest.
func (w *Watcher) RunCycle(ctx context.Context) {
	started := time.Now()
	channels := w.container.Config.Watcher.Channels

	snapshots := w.container.Collector.FetchSnapshots(ctx, channels)
	processed := 0
	for _, channelID := range channels {
		snapshot, ok := snapshots[channelID]
		if !ok || snapshot == nil {
			continue
		}
		if err := w.processSnapshot(ctx, snapshot); err != nil {
			w.logger.Error("Failed to process channel",
				zap.String("channel", channelID),
				zap.Error(err))
			continue
		}
		processed++
	}

	w.logger.Info("Cycle complete",
		zap.Int("channels", len(channels)),
		zap.Int("processed", processed),
		zap.Duration("elapsed", time.Since(started)))
}

func (w *Watcher) processSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	c := w.container

	previous := w.previousSnapshot(ctx, snapshot.ChannelID)

	report := c.Integrator.ProcessDeltaWithTrendAnalysis(ctx, snapshot, previous, w.integratorOptions())

	if err := c.Snapshots.Save(ctx, snapshot); err != nil {
		return err
	}
	if err := w.appendHistory(ctx, snapshot); err != nil {
		return err
	}
	if c.Cache != nil {
		c.Cache.SetLatestSnapshot(ctx, snapshot, snapshotCacheTTL)
	}

	return w.emitReport(report)
}

// previousSnapshot prefers the cached copy and falls back to the database.
// A missing previous snapshot is not an error: the first cycle for a channel
// produces a baseline report.
func (w *Watcher) previousSnapshot(ctx context.Context, channelID string) *domain.Snapshot {
	c := w.container
	if c.Cache != nil {
		if cached, ok := c.Cache.GetLatestSnapshot(ctx, channelID); ok {
			return cached
		}
	}
	previous, err := c.Snapshots.GetLatest(ctx, channelID)
	if err != nil {
		w.logger.Warn("Failed to load previous snapshot",
			zap.String("channel", channelID),
			zap.Error(err))
		return nil
	}
	return previous
}

func (w *Watcher) appendHistory(ctx context.Context, snapshot *domain.Snapshot) error {
	return w.container.historyRepo.AppendSnapshotMetrics(ctx, snapshot)
}

func (w *Watcher) integratorOptions() service.IntegratorOptions {
	cfg := w.container.Config
	return service.IntegratorOptions{
		Delta:               w.container.DeltaOptions(),
		IncludeTrendMetrics: true,
		TrendWindowDays:     cfg.Analysis.TrendWindowDays,
	}
}

func (w *Watcher) emitReport(report *domain.DeltaReport) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return err
	}

	w.logger.Info("Report emitted",
		zap.String("channel", report.ChannelID),
		zap.Int("significant_changes", len(report.SignificantChanges)),
		zap.Bool("threshold_violations", report.HasThresholdViolations))
	return nil
}
