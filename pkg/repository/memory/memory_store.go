package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
)

// Draft memories mirror what the database trigger writes for a journal entry
const (
	draftCategory   = types.CategoryPersonalInfo
	draftConfidence = 0.5
)

// storedMemory keeps the insertion sequence so memories created within the
// same clock tick still sort deterministically.
type storedMemory struct {
	memory *model.Memory
	seq    uint64
}

type memoryRepository struct {
	mu      sync.RWMutex
	seq     uint64
	entries map[string]map[model.MemoryID]*storedMemory
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		entries: make(map[string]map[model.MemoryID]*storedMemory),
	}
}

func (r *memoryRepository) ensureUser(userID string) map[model.MemoryID]*storedMemory {
	bucket, exists := r.entries[userID]
	if !exists {
		bucket = make(map[model.MemoryID]*storedMemory)
		r.entries[userID] = bucket
	}
	return bucket
}

func (r *memoryRepository) Create(ctx context.Context, userID string, mem *model.Memory) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.create(userID, mem), nil
}

func (r *memoryRepository) create(userID string, mem *model.Memory) *model.Memory {
	bucket := r.ensureUser(userID)

	created := mem.Copy()
	if created.ID == "" {
		created.ID = model.NewMemoryID()
	}
	created.UserID = userID
	now := time.Now().UTC()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	if created.LastUpdated.IsZero() {
		created.LastUpdated = created.CreatedAt
	}

	r.seq++
	bucket[created.ID] = &storedMemory{memory: created, seq: r.seq}
	return created.Copy()
}

// insertDraft is invoked synchronously by the journal repository when the
// draft trigger is enabled.
func (r *memoryRepository) insertDraft(entry *model.JournalEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.create(entry.UserID, &model.Memory{
		Category:       draftCategory,
		Fact:           truncateRunes(entry.Content, model.MaxFactLength),
		Confidence:     draftConfidence,
		SourceType:     types.SourceTypeJournalEntry,
		SourceID:       string(entry.ID),
		NeedsEmbedding: true,
		CreatedAt:      entry.CreatedAt,
	})
}

func (r *memoryRepository) lookup(userID string, memoryID model.MemoryID) (*storedMemory, error) {
	bucket, exists := r.entries[userID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V(model.MemoryIDKey, memoryID))
	}

	stored, exists := bucket[memoryID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V(model.MemoryIDKey, memoryID))
	}
	return stored, nil
}

func (r *memoryRepository) Get(ctx context.Context, userID string, memoryID model.MemoryID) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, err := r.lookup(userID, memoryID)
	if err != nil {
		return nil, err
	}
	return stored.memory.Copy(), nil
}

func (r *memoryRepository) Delete(ctx context.Context, userID string, memoryID model.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(userID, memoryID); err != nil {
		return err
	}

	delete(r.entries[userID], memoryID)
	return nil
}

// collect returns matching memories ordered by CreatedAt then insertion order
func (r *memoryRepository) collect(userID string, match func(*model.Memory) bool) []*model.Memory {
	bucket := r.entries[userID]

	stored := make([]*storedMemory, 0, len(bucket))
	for _, s := range bucket {
		if match == nil || match(s.memory) {
			stored = append(stored, s)
		}
	}

	sort.Slice(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.memory.CreatedAt.Equal(b.memory.CreatedAt) {
			return a.memory.CreatedAt.Before(b.memory.CreatedAt)
		}
		return a.seq < b.seq
	})

	result := make([]*model.Memory, len(stored))
	for i, s := range stored {
		result[i] = s.memory.Copy()
	}
	return result
}

func (r *memoryRepository) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.collect(userID, nil)
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

func (r *memoryRepository) ListBySource(ctx context.Context, userID string, sourceType types.SourceType, sourceID string) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(userID, func(m *model.Memory) bool {
		return m.SourceType == sourceType && m.SourceID == sourceID
	}), nil
}

func (r *memoryRepository) ListPendingEmbedding(ctx context.Context, userID string, limit int) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.collect(userID, func(m *model.Memory) bool {
		return m.NeedsEmbedding
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memoryRepository) UpdateEmbedding(ctx context.Context, userID string, memoryID model.MemoryID, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.lookup(userID, memoryID)
	if err != nil {
		return err
	}

	stored.memory.Embedding = make([]float32, len(embedding))
	copy(stored.memory.Embedding, embedding)
	stored.memory.NeedsEmbedding = false
	stored.memory.LastUpdated = time.Now().UTC()
	return nil
}

func (r *memoryRepository) SetVerified(ctx context.Context, userID string, memoryID model.MemoryID, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.lookup(userID, memoryID)
	if err != nil {
		return err
	}

	stored.memory.Verified = verified
	stored.memory.LastUpdated = time.Now().UTC()
	return nil
}

func (r *memoryRepository) FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		memory *model.Memory
		score  float64
	}

	var candidates []scored
	for _, m := range r.collect(userID, func(m *model.Memory) bool { return m.HasEmbedding() }) {
		candidates = append(candidates, scored{memory: m, score: cosineSimilarity(embedding, m.Embedding)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	result := make([]*model.Memory, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].memory
	}

	return result, nil
}

// cosineSimilarity scores unequal-length vectors as 0 so they rank last
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
