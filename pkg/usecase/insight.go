package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/service/pattern"
)

// InsightUseCase serves pattern analysis over a user's memories
type InsightUseCase struct {
	repo interfaces.Repository
}

func NewInsightUseCase(repo interfaces.Repository) *InsightUseCase {
	return &InsightUseCase{repo: repo}
}

// AnalyzePatterns returns one insight per category the user has memories in
func (uc *InsightUseCase) AnalyzePatterns(ctx context.Context, userID string) ([]*model.MemoryInsight, error) {
	memories, err := uc.repo.Memory().List(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.UserIDKey, userID))
	}

	return pattern.AnalyzePatterns(memories, time.Now().UTC()), nil
}

// FindRelated returns memories related to the given one, most similar first
func (uc *InsightUseCase) FindRelated(ctx context.Context, userID string, memoryID model.MemoryID) ([]*model.Memory, error) {
	source, err := uc.repo.Memory().Get(ctx, userID, memoryID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryIDKey, memoryID))
	}

	memories, err := uc.repo.Memory().List(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.UserIDKey, userID))
	}

	return pattern.FindRelated(source, memories), nil
}

// FindSimilar returns up to limit memories nearest to the given one in
// embedding space. A memory without an embedding has no neighbours yet.
func (uc *InsightUseCase) FindSimilar(ctx context.Context, userID string, memoryID model.MemoryID, limit int) ([]*model.Memory, error) {
	source, err := uc.repo.Memory().Get(ctx, userID, memoryID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryIDKey, memoryID))
	}
	if !source.HasEmbedding() || limit <= 0 {
		return []*model.Memory{}, nil
	}

	found, err := uc.repo.Memory().FindByEmbedding(ctx, userID, source.Embedding, limit+1)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search similar memories", goerr.V(model.MemoryIDKey, memoryID))
	}

	similar := make([]*model.Memory, 0, limit)
	for _, m := range found {
		if m.ID == source.ID {
			continue
		}
		similar = append(similar, m)
		if len(similar) == limit {
			break
		}
	}
	return similar, nil
}
