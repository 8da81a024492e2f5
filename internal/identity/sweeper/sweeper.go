// Package sweeper periodically removes expired provisional credentials from
// stores that do not expire records on their own.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 5 * time.Minute

// Target deletes expired records and reports how many were removed.
type Target interface {
	SweepExpired(ctx context.Context) (int, error)
}

type Sweeper struct {
	target   Target
	logger   *slog.Logger
	interval time.Duration
}

func New(target Target, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{target: target, logger: logger, interval: interval}
}

// Run sweeps once immediately and then every interval until ctx is cancelled.
// Sweep errors are logged, never returned.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("credential sweeper started", slog.Duration("interval", s.interval))
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("credential sweeper stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) {
	removed, err := s.target.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("credential sweep failed", slog.String("error", err.Error()))
		}
		return
	}
	if removed > 0 {
		s.logger.Debug("expired credentials swept", slog.Int("removed", removed))
	}
}
