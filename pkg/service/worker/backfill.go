package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
)

// BackfillFunc embeds the pending memories of one user
type BackfillFunc func(ctx context.Context, userID string) error

// BackfillWorker periodically embeds memories that were stored without a
// vector, one user at a time.
//
// Runs on a single server instance; there is no distributed lock.
type BackfillWorker struct {
	userIDs  []string
	backfill BackfillFunc
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBackfillWorker creates a worker for the given users
func NewBackfillWorker(userIDs []string, fn BackfillFunc, interval time.Duration) *BackfillWorker {
	return &BackfillWorker{
		userIDs:  userIDs,
		backfill: fn,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the first pass and the periodic loop in the background
func (w *BackfillWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("backfill interval must be positive", goerr.V("interval", w.interval))
	}

	logging.From(ctx).Info("Embedding backfill worker starting",
		"interval", w.interval.String(),
		"users", len(w.userIDs))

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for the running pass
func (w *BackfillWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Embedding backfill worker stopped")
}

func (w *BackfillWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.From(ctx).Info("Embedding backfill worker context cancelled")
			return
		}
	}
}

// runOnce backfills every user. A failing user does not stop the pass.
func (w *BackfillWorker) runOnce(ctx context.Context) {
	start := time.Now()
	logger := logging.From(ctx)

	failed := 0
	for _, userID := range w.userIDs {
		if ctx.Err() != nil {
			return
		}
		if err := w.backfill(ctx, userID); err != nil {
			failed++
			logger.Error("Embedding backfill failed (will retry next interval)",
				"error", goerr.Wrap(err, "backfill pass", goerr.V(model.UserIDKey, userID)).Error())
		}
	}

	logger.Info("Embedding backfill pass completed",
		"users", len(w.userIDs),
		"failed", failed,
		"duration", time.Since(start).String())
}
