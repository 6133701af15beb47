package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemos/pkg/service/worker"
)

type recorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *recorder) backfill(failFor string) worker.BackfillFunc {
	return func(ctx context.Context, userID string) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls[userID]++
		if userID == failFor {
			return errors.New("provider down")
		}
		return nil
	}
}

func (r *recorder) count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[userID]
}

func TestBackfillWorker(t *testing.T) {
	t.Run("first pass runs on start for every user", func(t *testing.T) {
		rec := &recorder{calls: map[string]int{}}
		w := worker.NewBackfillWorker([]string{"u1", "u2"}, rec.backfill(""), time.Hour)
		gt.NoError(t, w.Start(context.Background())).Required()

		deadline := time.Now().Add(time.Second)
		for rec.count("u2") == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		w.Stop()

		gt.Value(t, rec.count("u1")).Equal(1)
		gt.Value(t, rec.count("u2")).Equal(1)
	})

	t.Run("a failing user does not block the others", func(t *testing.T) {
		rec := &recorder{calls: map[string]int{}}
		w := worker.NewBackfillWorker([]string{"u1", "u2"}, rec.backfill("u1"), 10*time.Millisecond)
		gt.NoError(t, w.Start(context.Background())).Required()

		deadline := time.Now().Add(time.Second)
		for rec.count("u2") < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		w.Stop()

		gt.Number(t, rec.count("u1")).GreaterOrEqual(2)
		gt.Number(t, rec.count("u2")).GreaterOrEqual(2)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		rec := &recorder{calls: map[string]int{}}
		ctx, cancel := context.WithCancel(context.Background())
		w := worker.NewBackfillWorker([]string{"u1"}, rec.backfill(""), time.Hour)
		gt.NoError(t, w.Start(ctx)).Required()
		cancel()
		w.Stop()
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		w := worker.NewBackfillWorker(nil, func(ctx context.Context, userID string) error { return nil }, 0)
		gt.Error(t, w.Start(context.Background()))
	})
}
