package storage

import (
	"context"
	"log/slog"
	"time"

	"sitekit/internal/server/ratelimit"
)

// CleanupService periodically prunes expired rate-limit state so the
// store does not grow without bound between submissions.
type CleanupService struct {
	limiter  ratelimit.Limiter
	interval time.Duration
	done     chan struct{}
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(limiter ratelimit.Limiter, interval time.Duration) *CleanupService {
	return &CleanupService{
		limiter:  limiter,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup loop in a background goroutine.
func (cs *CleanupService) Start(ctx context.Context) {
	slog.Info("cleanup service started", "interval", cs.interval)

	go func() {
		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		// Run once immediately on start
		cs.runCleanup(ctx)

		for {
			select {
			case <-ticker.C:
				cs.runCleanup(ctx)
			case <-ctx.Done():
				slog.Info("cleanup service stopping")
				close(cs.done)
				return
			}
		}
	}()
}

// Wait blocks until the cleanup service has fully stopped.
func (cs *CleanupService) Wait() {
	<-cs.done
}

func (cs *CleanupService) runCleanup(ctx context.Context) {
	if err := cs.limiter.Prune(ctx); err != nil {
		slog.Error("failed to prune rate-limit state", "error", err)
		return
	}
	slog.Info("cleanup cycle complete")
}
