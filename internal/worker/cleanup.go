// Package worker hosts the background maintenance loops of the token service.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TokenPurger removes expired refresh token records. Implemented by
// service.TokenService.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CleanupWorker periodically deletes expired refresh token records so the
// candidate scan window stays dense with live tokens.
type CleanupWorker struct {
	purger   TokenPurger
	interval time.Duration
	logger   *zap.Logger
}

func NewCleanupWorker(purger TokenPurger, interval time.Duration, logger *zap.Logger) *CleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupWorker{
		purger:   purger,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// A failed sweep is logged and retried on the next tick.
func (w *CleanupWorker) Run(ctx context.Context) {
	w.logger.Info("cleanup worker started", zap.Duration("interval", w.interval))

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	count, err := w.purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("expired token sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		w.logger.Info("expired tokens removed", zap.Int64("count", count))
	}
}
