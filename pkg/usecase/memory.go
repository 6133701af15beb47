package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/service/embedding"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
)

// IngestResult lists the memories stored by Ingest and how many candidates
// failed validation.
type IngestResult struct {
	Created  []*model.Memory
	Rejected int
}

type MemoryUseCase struct {
	repo     interfaces.Repository
	embedder *embedding.Client
}

func NewMemoryUseCase(repo interfaces.Repository, embedder *embedding.Client) *MemoryUseCase {
	return &MemoryUseCase{
		repo:     repo,
		embedder: embedder,
	}
}

// Ingest validates candidates, stores the valid ones and attaches an
// embedding to each. Invalid candidates are logged and dropped. A memory
// whose embedding could not be generated stays flagged NeedsEmbedding.
func (uc *MemoryUseCase) Ingest(ctx context.Context, userID string, candidates []*model.Memory) (*IngestResult, error) {
	logger := logging.From(ctx)
	result := &IngestResult{Created: []*model.Memory{}}

	for _, candidate := range candidates {
		if candidate == nil {
			result.Rejected++
			continue
		}
		if err := candidate.Validate(); err != nil {
			result.Rejected++
			logger.Info("discard invalid memory candidate",
				"user_id", userID,
				"source_id", candidate.SourceID,
				"error", err,
			)
			continue
		}

		m := candidate.Copy()
		m.ID = ""
		m.Verified = false
		m.NeedsEmbedding = true
		m.Embedding = nil

		created, err := uc.repo.Memory().Create(ctx, userID, m)
		if err != nil {
			return result, goerr.Wrap(err, "failed to store memory", goerr.V(model.UserIDKey, userID))
		}

		uc.attachEmbedding(ctx, userID, created)
		result.Created = append(result.Created, created)
	}

	return result, nil
}

// attachEmbedding generates and stores the embedding of m in place. Failures
// leave m pending for the backfill job.
func (uc *MemoryUseCase) attachEmbedding(ctx context.Context, userID string, m *model.Memory) {
	if uc.embedder == nil {
		return
	}

	vector := uc.embedder.Generate(ctx, m.Fact)
	if vector == nil {
		return
	}

	if err := uc.repo.Memory().UpdateEmbedding(ctx, userID, m.ID, vector); err != nil {
		logging.From(ctx).Warn("failed to store embedding",
			"memory_id", m.ID,
			"error", err,
		)
		return
	}

	m.Embedding = vector
	m.NeedsEmbedding = false
}

// SetVerified records the user's confirmation of a memory
func (uc *MemoryUseCase) SetVerified(ctx context.Context, userID string, memoryID model.MemoryID, verified bool) (*model.Memory, error) {
	if err := uc.repo.Memory().SetVerified(ctx, userID, memoryID, verified); err != nil {
		return nil, goerr.Wrap(err, "failed to set verified",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.MemoryIDKey, memoryID),
		)
	}

	m, err := uc.repo.Memory().Get(ctx, userID, memoryID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryIDKey, memoryID))
	}
	return m, nil
}
