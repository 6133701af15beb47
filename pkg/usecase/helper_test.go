package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/service/embedding"
	"github.com/secmon-lab/mnemos/pkg/utils/retry"
)

type mockEmbeddingProvider struct {
	EmbedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.EmbedFn(ctx, text)
}

type mockCompleter struct {
	CompleteFn func(ctx context.Context, prompt string, opts interfaces.CompleteOptions) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string, opts interfaces.CompleteOptions) (string, error) {
	return m.CompleteFn(ctx, prompt, opts)
}

// hookedMemoryRepository intercepts Delete to inject failures
type hookedMemoryRepository struct {
	interfaces.MemoryRepository
	deleteFn func(ctx context.Context, userID string, memoryID model.MemoryID) error
}

func (r *hookedMemoryRepository) Delete(ctx context.Context, userID string, memoryID model.MemoryID) error {
	if r.deleteFn != nil {
		if err := r.deleteFn(ctx, userID, memoryID); err != nil {
			return err
		}
	}
	return r.MemoryRepository.Delete(ctx, userID, memoryID)
}

type hookedRepository struct {
	interfaces.Repository
	memory *hookedMemoryRepository
}

func (r *hookedRepository) Memory() interfaces.MemoryRepository {
	return r.memory
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 3, BaseDelay: time.Millisecond}
}

func newEmbeddingClient(t *testing.T, fn func(ctx context.Context, text string) ([]float32, error)) *embedding.Client {
	t.Helper()
	client, err := embedding.New(&mockEmbeddingProvider{EmbedFn: fn},
		embedding.WithChunkDelay(time.Millisecond),
		embedding.WithRetryPolicy(fastPolicy()),
	)
	gt.NoError(t, err).Required()
	return client
}

func fixedVector(vec ...float32) func(ctx context.Context, text string) ([]float32, error) {
	return func(ctx context.Context, text string) ([]float32, error) {
		return vec, nil
	}
}
