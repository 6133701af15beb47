package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
)

// MemoryRepository defines the interface for Memory data persistence.
// Every call is scoped by userID.
type MemoryRepository interface {
	// Create stores a new memory. ID and CreatedAt are assigned when empty.
	Create(ctx context.Context, userID string, memory *model.Memory) (*model.Memory, error)

	// Get retrieves a memory by ID
	Get(ctx context.Context, userID string, memoryID model.MemoryID) (*model.Memory, error)

	// Delete deletes a memory by ID
	Delete(ctx context.Context, userID string, memoryID model.MemoryID) error

	// List retrieves all memories of a user sorted by CreatedAt (newest first)
	List(ctx context.Context, userID string) ([]*model.Memory, error)

	// ListBySource retrieves memories sharing (sourceType, sourceID), sorted
	// by CreatedAt (oldest first)
	ListBySource(ctx context.Context, userID string, sourceType types.SourceType, sourceID string) ([]*model.Memory, error)

	// ListPendingEmbedding retrieves up to limit memories flagged NeedsEmbedding
	ListPendingEmbedding(ctx context.Context, userID string, limit int) ([]*model.Memory, error)

	// UpdateEmbedding attaches an embedding, clears NeedsEmbedding and bumps LastUpdated
	UpdateEmbedding(ctx context.Context, userID string, memoryID model.MemoryID, embedding []float32) error

	// SetVerified sets the user-confirmed flag and bumps LastUpdated
	SetVerified(ctx context.Context, userID string, memoryID model.MemoryID, verified bool) error

	// FindByEmbedding performs vector similarity search using cosine distance.
	// Returns up to limit memories most similar to the given embedding.
	FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.Memory, error)
}
