package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemos/pkg/domain/model"
)

// JournalRepository defines the interface for journal entry persistence
type JournalRepository interface {
	// Create stores a new journal entry. ID and CreatedAt are assigned when empty.
	Create(ctx context.Context, userID string, entry *model.JournalEntry) (*model.JournalEntry, error)

	// Get retrieves a journal entry by ID
	Get(ctx context.Context, userID string, entryID model.JournalEntryID) (*model.JournalEntry, error)

	// ListRecent retrieves up to limit entries sorted by CreatedAt (newest first)
	ListRecent(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error)
}
