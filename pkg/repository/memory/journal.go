package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
)

type journalRepository struct {
	mu      sync.RWMutex
	entries map[string]map[model.JournalEntryID]*model.JournalEntry

	// onInsert runs after an entry is stored, outside the journal lock
	onInsert func(entry *model.JournalEntry)
}

func newJournalRepository() *journalRepository {
	return &journalRepository{
		entries: make(map[string]map[model.JournalEntryID]*model.JournalEntry),
	}
}

func copyJournalEntry(e *model.JournalEntry) *model.JournalEntry {
	copied := *e
	return &copied
}

func (r *journalRepository) Create(ctx context.Context, userID string, entry *model.JournalEntry) (*model.JournalEntry, error) {
	created := copyJournalEntry(entry)
	if created.ID == "" {
		created.ID = model.NewJournalEntryID()
	}
	created.UserID = userID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	bucket, exists := r.entries[userID]
	if !exists {
		bucket = make(map[model.JournalEntryID]*model.JournalEntry)
		r.entries[userID] = bucket
	}
	bucket[created.ID] = created
	r.mu.Unlock()

	if r.onInsert != nil {
		r.onInsert(copyJournalEntry(created))
	}

	return copyJournalEntry(created), nil
}

func (r *journalRepository) Get(ctx context.Context, userID string, entryID model.JournalEntryID) (*model.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[userID][entryID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "journal entry not found", goerr.V("entry_id", entryID))
	}
	return copyJournalEntry(entry), nil
}

func (r *journalRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.entries[userID]
	result := make([]*model.JournalEntry, 0, len(bucket))
	for _, e := range bucket {
		result = append(result, copyJournalEntry(e))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
