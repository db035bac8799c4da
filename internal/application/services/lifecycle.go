package services

import (
	"context"
	"time"

	"github.com/tobilawal/localdiscovery/internal/infrastructure/observability"
)

// startBackgroundTasks launches the periodic snapshot and retention
// loops. Calling it while they are already running is a no-op.
func (s *SearchContextService) startBackgroundTasks() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.snapshotLoop(ctx)
	go s.retentionLoop(ctx)

	logger := observability.Component("lifecycle")
	logger.Info().
		Dur("snapshot_interval", s.cfg.SnapshotInterval).
		Dur("retention_sweep", s.cfg.RetentionSweep).
		Msg("background tasks started")
}

func (s *SearchContextService) snapshotLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.autoSnapshotTick(ctx)
		}
	}
}

func (s *SearchContextService) retentionLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RetentionSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.retentionSweep(ctx)
		}
	}
}

// retentionSweep purges entries past the live retention period.
func (s *SearchContextService) retentionSweep(ctx context.Context) {
	s.mu.RLock()
	days := s.ctxState.Preferences.Privacy.RetentionPeriodDays
	s.mu.RUnlock()
	if days <= 0 {
		days = s.cfg.RetentionDays
	}

	removed := s.ClearSearchHistory(ctx, days)
	if removed > 0 {
		observability.LoggerFromContext(ctx).Info().
			Int("removed", removed).
			Int("retention_days", days).
			Msg("retention sweep purged history")
	}
}

// Cleanup stops the background tasks and removes all notification
// subscribers. Safe to call multiple times.
func (s *SearchContextService) Cleanup() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.wg.Wait()
	}
	if s.bus != nil {
		_ = s.bus.Close()
	}
}
