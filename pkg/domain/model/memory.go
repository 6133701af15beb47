package model

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
)

// EmbeddingDimension is the default vector size requested from the embedding provider
const EmbeddingDimension = 768

// Length bounds for fact and context text, counted in characters after trimming
const (
	MinFactLength = 3
	MaxFactLength = 1000
)

// MemoryID is a UUID-based identifier for Memory
type MemoryID string

// NewMemoryID generates a new UUID v4 MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// Memory is a discrete fact extracted about a user from a journal entry or
// chat message. Fields other than Verified, LastUpdated, NeedsEmbedding and
// Embedding do not change once the memory has been validated.
type Memory struct {
	ID         MemoryID
	UserID     string
	Category   types.Category
	Fact       string
	Confidence float64
	SourceType types.SourceType
	SourceID   string
	Context    string
	Verified   bool

	// NeedsEmbedding is set on draft memories and on memories whose
	// embedding generation failed; the backfill job clears it.
	NeedsEmbedding bool
	Embedding      []float32

	CreatedAt   time.Time
	LastUpdated time.Time
}

// HasEmbedding reports whether an embedding vector is attached
func (m *Memory) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// HasContext reports whether Context carries any non-blank text
func (m *Memory) HasContext() bool {
	return strings.TrimSpace(m.Context) != ""
}

// Timestamp returns LastUpdated, falling back to CreatedAt when unset
func (m *Memory) Timestamp() time.Time {
	if m.LastUpdated.IsZero() {
		return m.CreatedAt
	}
	return m.LastUpdated
}

// Copy returns a deep copy of the memory
func (m *Memory) Copy() *Memory {
	copied := *m
	if m.Embedding != nil {
		copied.Embedding = make([]float32, len(m.Embedding))
		copy(copied.Embedding, m.Embedding)
	}
	return &copied
}

// Validate checks the structural invariants of a candidate memory in order:
// category, confidence, fact length and context length.
func (m *Memory) Validate() error {
	if !m.Category.IsValid() {
		return goerr.Wrap(ErrValidation, "invalid category", goerr.V(CategoryKey, m.Category))
	}
	if math.IsNaN(m.Confidence) || m.Confidence < 0 || m.Confidence > 1 {
		return goerr.Wrap(ErrValidation, "confidence must be between 0 and 1", goerr.V(ConfidenceKey, m.Confidence))
	}
	if n := textLength(m.Fact); n < MinFactLength || n > MaxFactLength {
		return goerr.Wrap(ErrValidation, "fact length out of range", goerr.V(LengthKey, n))
	}
	if m.HasContext() {
		if n := textLength(m.Context); n < MinFactLength || n > MaxFactLength {
			return goerr.Wrap(ErrValidation, "context length out of range", goerr.V(LengthKey, n))
		}
	}
	return nil
}

// IsValidMemory is the boolean form of Validate. It never panics, including
// on a nil candidate.
func IsValidMemory(m *Memory) bool {
	if m == nil {
		return false
	}
	return m.Validate() == nil
}

func textLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
