package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/secmon-lab/mnemos/pkg/repository/memory"
	"github.com/secmon-lab/mnemos/pkg/usecase"
)

func TestJournalCreate(t *testing.T) {
	t.Run("rejects empty content", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithDedupDelay(0))
		_, err := uc.Journal.Create(context.Background(), "user-1", "   ")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()
	})

	t.Run("stores entry", func(t *testing.T) {
		ctx := context.Background()
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithDedupDelay(time.Hour))

		entry, err := uc.Journal.Create(ctx, "user-1", "Had a hard conversation with my manager about burnout")
		gt.NoError(t, err).Required()

		stored, err := repo.Journal().Get(ctx, "user-1", entry.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Content).Equal(entry.Content)
	})
}

func TestJournalProcess(t *testing.T) {
	t.Run("keeps the trigger draft and embeds it", func(t *testing.T) {
		ctx := context.Background()
		repo := memory.New(memory.WithDraftTrigger())
		uc := usecase.New(repo,
			usecase.WithDedupDelay(0),
			usecase.WithEmbedding(newEmbeddingClient(t, fixedVector(0.1, 0.2, 0.3, 0.4))),
		)

		entry, err := repo.Journal().Create(ctx, "user-1", &model.JournalEntry{
			Content: "Had a hard conversation with my manager about burnout",
		})
		gt.NoError(t, err).Required()

		// application-level write racing the trigger
		_, err = repo.Memory().Create(ctx, "user-1", &model.Memory{
			Category:   types.CategoryWork,
			Fact:       "Had a hard conversation with my manager about burnout",
			Confidence: 0.5,
			SourceType: types.SourceTypeJournalEntry,
			SourceID:   string(entry.ID),
			CreatedAt:  entry.CreatedAt.Add(time.Millisecond),
		})
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.Journal.Process(ctx, "user-1", entry.ID)).Required()

		memories, err := repo.Memory().ListBySource(ctx, "user-1", types.SourceTypeJournalEntry, string(entry.ID))
		gt.NoError(t, err).Required()
		gt.Array(t, memories).Length(1)
		gt.Value(t, memories[0].Category).Equal(types.CategoryPersonalInfo)
		gt.Bool(t, memories[0].NeedsEmbedding).False()
		gt.Array(t, memories[0].Embedding).Length(4)
	})

	t.Run("no draft is fine", func(t *testing.T) {
		ctx := context.Background()
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithDedupDelay(0))

		entry, err := repo.Journal().Create(ctx, "user-1", &model.JournalEntry{Content: "quiet day"})
		gt.NoError(t, err).Required()
		gt.NoError(t, uc.Journal.Process(ctx, "user-1", entry.ID))
	})
}
