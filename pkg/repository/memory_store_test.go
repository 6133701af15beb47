package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/secmon-lab/mnemos/pkg/repository/firestore"
	"github.com/secmon-lab/mnemos/pkg/repository/memory"
)

func newUserID() string {
	return fmt.Sprintf("user-%d", time.Now().UnixNano())
}

func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}

func runMemoryRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category:   types.CategoryWork,
			Fact:       "Feels burned out from workload",
			Confidence: 0.78,
			SourceType: types.SourceTypeJournalEntry,
			SourceID:   "entry-1",
			Context:    "Conversation with manager",
			Embedding:  []float32{0.1, 0.2, 0.3},
		})
		gt.NoError(t, err).Required()

		gt.String(t, string(created.ID)).NotEqual("")
		gt.Value(t, created.UserID).Equal(userID)
		gt.Value(t, created.Category).Equal(types.CategoryWork)
		gt.Value(t, created.Fact).Equal("Feels burned out from workload")
		gt.Value(t, created.Confidence).Equal(0.78)
		gt.Bool(t, created.Verified).False()
		gt.Array(t, created.Embedding).Length(3)
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.LastUpdated.IsZero()).False()
	})

	t.Run("Get retrieves existing memory", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category:   types.CategoryGoals,
			Fact:       "Wants to change careers within the year",
			Confidence: 0.75,
			Embedding:  []float32{0.5, 0.6, 0.7, 0.8},
		})
		gt.NoError(t, err).Required()

		retrieved, err := repo.Memory().Get(ctx, userID, created.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, retrieved.ID).Equal(created.ID)
		gt.Value(t, retrieved.Category).Equal(types.CategoryGoals)
		gt.Value(t, retrieved.Fact).Equal("Wants to change careers within the year")
		gt.Array(t, retrieved.Embedding).Length(4)
		gt.Bool(t, time.Since(retrieved.CreatedAt) < 3*time.Second).True()
	})

	t.Run("Get is scoped by user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Memory().Create(ctx, newUserID(), &model.Memory{
			Category: types.CategoryHealth, Fact: "Runs every morning", Confidence: 0.9,
		})
		gt.NoError(t, err).Required()

		_, err = repo.Memory().Get(ctx, newUserID()+"-other", created.ID)
		gt.Value(t, err).NotNil()
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("Get returns error for non-existent memory", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Memory().Get(context.Background(), newUserID(), "non-existent-id")
		gt.Value(t, err).NotNil()
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("Delete removes existing memory", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryEmotional, Fact: "Temporary observation", Confidence: 0.4,
		})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Memory().Delete(ctx, userID, created.ID)).Required()

		_, err = repo.Memory().Get(ctx, userID, created.ID)
		gt.Value(t, err).NotNil()
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("Delete returns error for non-existent memory", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Memory().Delete(context.Background(), newUserID(), "non-existent-id")
		gt.Value(t, err).NotNil()
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("List returns memories of a user newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()
		base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

		m1, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "First observation", Confidence: 0.5, CreatedAt: base,
		})
		gt.NoError(t, err).Required()

		m2, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "Second observation", Confidence: 0.5, CreatedAt: base.Add(time.Minute),
		})
		gt.NoError(t, err).Required()

		_, err = repo.Memory().Create(ctx, userID+"-other", &model.Memory{
			Category: types.CategoryWork, Fact: "Other user memory", Confidence: 0.5,
		})
		gt.NoError(t, err).Required()

		memories, err := repo.Memory().List(ctx, userID)
		gt.NoError(t, err).Required()

		gt.Array(t, memories).Length(2)
		gt.Value(t, memories[0].ID).Equal(m2.ID)
		gt.Value(t, memories[1].ID).Equal(m1.ID)
	})

	t.Run("List returns empty for unknown user", func(t *testing.T) {
		repo := newRepo(t)
		memories, err := repo.Memory().List(context.Background(), newUserID())
		gt.NoError(t, err).Required()
		gt.Array(t, memories).Length(0)
	})

	t.Run("ListBySource returns matching memories oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()
		base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

		var ids []model.MemoryID
		for i := 0; i < 3; i++ {
			m, err := repo.Memory().Create(ctx, userID, &model.Memory{
				Category:   types.CategoryWork,
				Fact:       fmt.Sprintf("Duplicate %d", i),
				Confidence: 0.5,
				SourceType: types.SourceTypeJournalEntry,
				SourceID:   "42",
				CreatedAt:  base.Add(time.Duration(i) * time.Second),
			})
			gt.NoError(t, err).Required()
			ids = append(ids, m.ID)
		}

		_, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "Other entry", Confidence: 0.5,
			SourceType: types.SourceTypeJournalEntry, SourceID: "43",
		})
		gt.NoError(t, err).Required()

		_, err = repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "Chat memory", Confidence: 0.5,
			SourceType: types.SourceTypeChatMessage, SourceID: "42",
		})
		gt.NoError(t, err).Required()

		memories, err := repo.Memory().ListBySource(ctx, userID, types.SourceTypeJournalEntry, "42")
		gt.NoError(t, err).Required()
		gt.Array(t, memories).Length(3)
		for i, m := range memories {
			gt.Value(t, m.ID).Equal(ids[i])
		}
	})

	t.Run("UpdateEmbedding attaches vector and clears pending flag", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "Pending memory", Confidence: 0.6, NeedsEmbedding: true,
		})
		gt.NoError(t, err).Required()

		pending, err := repo.Memory().ListPendingEmbedding(ctx, userID, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(1)

		gt.NoError(t, repo.Memory().UpdateEmbedding(ctx, userID, created.ID, []float32{0.1, 0.2, 0.3, 0.4})).Required()

		retrieved, err := repo.Memory().Get(ctx, userID, created.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, retrieved.NeedsEmbedding).False()
		gt.Array(t, retrieved.Embedding).Length(4)
		gt.Bool(t, retrieved.LastUpdated.Before(created.LastUpdated)).False()

		pending, err = repo.Memory().ListPendingEmbedding(ctx, userID, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(0)
	})

	t.Run("ListPendingEmbedding respects limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		for i := 0; i < 4; i++ {
			_, err := repo.Memory().Create(ctx, userID, &model.Memory{
				Category: types.CategoryWork, Fact: fmt.Sprintf("Pending %d", i), Confidence: 0.6, NeedsEmbedding: true,
			})
			gt.NoError(t, err).Required()
		}

		pending, err := repo.Memory().ListPendingEmbedding(ctx, userID, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(3)
	})

	t.Run("UpdateEmbedding returns error for non-existent memory", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Memory().UpdateEmbedding(context.Background(), newUserID(), "non-existent-id", []float32{1})
		gt.Value(t, err).NotNil()
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("SetVerified toggles only verification", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		created, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryFamily, Fact: "Has two younger sisters", Confidence: 0.9,
		})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Memory().SetVerified(ctx, userID, created.ID, true)).Required()

		retrieved, err := repo.Memory().Get(ctx, userID, created.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, retrieved.Verified).True()
		gt.Value(t, retrieved.Fact).Equal(created.Fact)
		gt.Value(t, retrieved.Confidence).Equal(created.Confidence)
	})

	t.Run("FindByEmbedding returns similar memories", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()
		dim := model.EmbeddingDimension

		similarEmb := make([]float32, dim)
		similarEmb[0] = 0.9
		similarEmb[1] = 0.1
		_, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "Similar memory", Confidence: 0.5, Embedding: similarEmb,
		})
		gt.NoError(t, err).Required()

		dissimilarEmb := make([]float32, dim)
		dissimilarEmb[1] = 0.9
		dissimilarEmb[2] = 0.1
		_, err = repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "Dissimilar memory", Confidence: 0.5, Embedding: dissimilarEmb,
		})
		gt.NoError(t, err).Required()

		mostSimilarEmb := make([]float32, dim)
		mostSimilarEmb[0] = 1.0
		_, err = repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "Most similar memory", Confidence: 0.5, Embedding: mostSimilarEmb,
		})
		gt.NoError(t, err).Required()

		queryEmb := make([]float32, dim)
		queryEmb[0] = 1.0
		results, err := repo.Memory().FindByEmbedding(ctx, userID, queryEmb, 2)
		gt.NoError(t, err).Required()

		gt.Array(t, results).Length(2)
		gt.Value(t, results[0].Fact).Equal("Most similar memory")
		gt.Value(t, results[1].Fact).Equal("Similar memory")
	})

	t.Run("FindByEmbedding returns empty when no embeddings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		_, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "No embedding memory", Confidence: 0.5,
		})
		gt.NoError(t, err).Required()

		queryEmb := make([]float32, model.EmbeddingDimension)
		queryEmb[0] = 1.0
		results, err := repo.Memory().FindByEmbedding(ctx, userID, queryEmb, 5)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(0)
	})

	t.Run("Large embedding vector is preserved", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newUserID()

		embedding := make([]float32, model.EmbeddingDimension)
		for i := range embedding {
			embedding[i] = float32(i) / float32(model.EmbeddingDimension)
		}

		created, err := repo.Memory().Create(ctx, userID, &model.Memory{
			Category: types.CategoryWork, Fact: "Large embedding memory", Confidence: 0.5, Embedding: embedding,
		})
		gt.NoError(t, err).Required()

		retrieved, err := repo.Memory().Get(ctx, userID, created.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, retrieved.Embedding).Length(model.EmbeddingDimension)
		expectedLast := float32(model.EmbeddingDimension-1) / float32(model.EmbeddingDimension)
		gt.Value(t, retrieved.Embedding[model.EmbeddingDimension-1]).Equal(expectedLast)
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, os.Getenv("TEST_FIRESTORE_DATABASE_ID"),
		firestore.WithCollectionPrefix("test_"),
	)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func TestMemoryMemoryRepository(t *testing.T) {
	runMemoryRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreMemoryRepository(t *testing.T) {
	runMemoryRepositoryTest(t, newFirestoreRepository)
}
