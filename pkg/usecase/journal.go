package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/secmon-lab/mnemos/pkg/service/embedding"
	"github.com/secmon-lab/mnemos/pkg/utils/async"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
)

type JournalUseCase struct {
	repo     interfaces.Repository
	dedup    *DedupUseCase
	embedder *embedding.Client
}

func NewJournalUseCase(repo interfaces.Repository, dedup *DedupUseCase, embedder *embedding.Client) *JournalUseCase {
	return &JournalUseCase{
		repo:     repo,
		dedup:    dedup,
		embedder: embedder,
	}
}

// Create stores a journal entry and reconciles its draft memories in the
// background.
func (uc *JournalUseCase) Create(ctx context.Context, userID, content string) (*model.JournalEntry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "journal content is empty", goerr.V(model.UserIDKey, userID))
	}

	entry, err := uc.repo.Journal().Create(ctx, userID, &model.JournalEntry{Content: content})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create journal entry", goerr.V(model.UserIDKey, userID))
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.Process(ctx, userID, entry.ID)
	})

	return entry, nil
}

// Process runs the post-insert workflow of an entry: deduplicate its draft
// memories, then embed the surviving one when it is still pending.
func (uc *JournalUseCase) Process(ctx context.Context, userID string, entryID model.JournalEntryID) error {
	result, err := uc.dedup.Run(ctx, userID, types.SourceTypeJournalEntry, string(entryID))
	if err != nil {
		return goerr.Wrap(err, "failed to deduplicate journal memories", goerr.V(EntryIDKey, entryID))
	}

	logging.From(ctx).Debug("journal entry reconciled",
		"entry_id", entryID,
		"kept", result.Kept,
		"deleted", result.Deleted,
		"failed", result.Failed,
	)

	if result.Kept == "" || uc.embedder == nil {
		return nil
	}

	kept, err := uc.repo.Memory().Get(ctx, userID, result.Kept)
	if err != nil {
		return goerr.Wrap(err, "failed to get kept memory", goerr.V(model.MemoryIDKey, result.Kept))
	}
	if !kept.NeedsEmbedding {
		return nil
	}

	vector := uc.embedder.Generate(ctx, kept.Fact)
	if vector == nil {
		return nil
	}
	if err := uc.repo.Memory().UpdateEmbedding(ctx, userID, kept.ID, vector); err != nil {
		return goerr.Wrap(err, "failed to store embedding", goerr.V(model.MemoryIDKey, kept.ID))
	}
	return nil
}
