package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
	"github.com/secmon-lab/mnemos/pkg/utils/metrics"
)

// DedupResult summarizes one reconciliation of a source
type DedupResult struct {
	// Kept is the earliest memory of the source, empty when none exists
	Kept    model.MemoryID
	Deleted int
	Failed  int
}

// DedupUseCase keeps exactly one memory per (source type, source ID)
type DedupUseCase struct {
	repo  interfaces.Repository
	delay time.Duration
}

func NewDedupUseCase(repo interfaces.Repository, delay time.Duration) *DedupUseCase {
	return &DedupUseCase{
		repo:  repo,
		delay: delay,
	}
}

// Run waits for the configured delay so the draft trigger can finish, then
// reconciles the source.
func (uc *DedupUseCase) Run(ctx context.Context, userID string, sourceType types.SourceType, sourceID string) (*DedupResult, error) {
	if uc.delay > 0 {
		timer := time.NewTimer(uc.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, goerr.Wrap(ctx.Err(), "dedup cancelled before reconciliation",
				goerr.V(model.SourceIDKey, sourceID),
			)
		case <-timer.C:
		}
	}

	return uc.Reconcile(ctx, userID, sourceType, sourceID)
}

// Reconcile deletes every memory of the source except the earliest created
// one. Each deletion is attempted independently; failures are counted and
// logged. Running it on a reconciled source is a no-op.
func (uc *DedupUseCase) Reconcile(ctx context.Context, userID string, sourceType types.SourceType, sourceID string) (*DedupResult, error) {
	logger := logging.From(ctx).With(
		"user_id", userID,
		"source_type", sourceType,
		"source_id", sourceID,
	)

	memories, err := uc.repo.Memory().ListBySource(ctx, userID, sourceType, sourceID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories of source",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.SourceTypeKey, sourceType),
			goerr.V(model.SourceIDKey, sourceID),
		)
	}

	result := &DedupResult{}
	if len(memories) == 0 {
		return result, nil
	}

	result.Kept = memories[0].ID
	for _, dup := range memories[1:] {
		err := uc.repo.Memory().Delete(ctx, userID, dup.ID)
		metrics.DedupDeleted(err)
		if err != nil {
			result.Failed++
			logger.Warn("failed to delete duplicate memory",
				"memory_id", dup.ID,
				"error", err,
			)
			continue
		}

		result.Deleted++
		logger.Info("deleted duplicate memory",
			"memory_id", dup.ID,
			"kept", result.Kept,
		)
	}

	return result, nil
}
