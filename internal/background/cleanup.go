package background

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes expired state and reports how many entries it dropped
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// CleanupManager periodically runs registered sweepers. The only
// registered sweeper today is the in-memory rate limiter.
type CleanupManager struct {
	sweepers map[string]Sweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		sweepers: make(map[string]Sweeper),
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register adds a named sweeper. Must be called before Start.
func (cm *CleanupManager) Register(name string, sweeper Sweeper) {
	cm.sweepers[name] = sweeper
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.runSweeps(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runSweeps runs every registered sweeper once
func (cm *CleanupManager) runSweeps(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for name, sweeper := range cm.sweepers {
		removed, err := sweeper.Sweep(sweepCtx)
		if err != nil {
			cm.logger.Error("sweep failed",
				slog.String("sweeper", name),
				slog.Any("error", err))
			continue
		}

		if removed > 0 {
			cm.logger.Info("sweep completed",
				slog.String("sweeper", name),
				slog.Int64("entries_removed", removed))
		}
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
