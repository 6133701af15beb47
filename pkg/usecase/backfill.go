package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/service/embedding"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
)

// DefaultBackfillLimit caps memories handled by one backfill run
const DefaultBackfillLimit = 500

// BackfillResult summarizes one backfill run
type BackfillResult struct {
	Processed int
	Updated   int
	Failed    int
}

// BackfillUseCase embeds memories created without an embedding
type BackfillUseCase struct {
	repo     interfaces.Repository
	embedder *embedding.Client
	limit    int
}

func NewBackfillUseCase(repo interfaces.Repository, embedder *embedding.Client, limit int) *BackfillUseCase {
	return &BackfillUseCase{
		repo:     repo,
		embedder: embedder,
		limit:    limit,
	}
}

// Run embeds pending memories of a user. Memories whose embedding fails
// stay pending for the next run.
func (uc *BackfillUseCase) Run(ctx context.Context, userID string) (*BackfillResult, error) {
	if uc.embedder == nil {
		return nil, goerr.Wrap(ErrEmbeddingDisabled, "cannot backfill embeddings")
	}

	logger := logging.From(ctx)

	pending, err := uc.repo.Memory().ListPendingEmbedding(ctx, userID, uc.limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending memories", goerr.V(model.UserIDKey, userID))
	}

	result := &BackfillResult{Processed: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	texts := make([]string, len(pending))
	for i, m := range pending {
		texts[i] = m.Fact
	}

	vectors, batchErr := uc.embedder.BatchGenerate(ctx, texts)

	for i, m := range pending {
		if vectors[i] == nil {
			result.Failed++
			continue
		}
		if err := uc.repo.Memory().UpdateEmbedding(ctx, userID, m.ID, vectors[i]); err != nil {
			result.Failed++
			logger.Warn("failed to store embedding",
				"memory_id", m.ID,
				"error", err,
			)
			continue
		}
		result.Updated++
	}

	logger.Info("embedding backfill finished",
		"user_id", userID,
		"processed", result.Processed,
		"updated", result.Updated,
		"failed", result.Failed,
	)

	if batchErr != nil {
		return result, goerr.Wrap(batchErr, "embedding backfill interrupted", goerr.V(model.UserIDKey, userID))
	}
	return result, nil
}
