package http

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/secmon-lab/mnemos/pkg/usecase"
)

type journalEntryResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toJournalEntryResponse(e *model.JournalEntry) journalEntryResponse {
	return journalEntryResponse{
		ID:        string(e.ID),
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
	}
}

type memoryRequest struct {
	Category   string  `json:"category"`
	Fact       string  `json:"fact"`
	Confidence float64 `json:"confidence"`
	SourceType string  `json:"source_type"`
	SourceID   string  `json:"source_id"`
	Context    string  `json:"context"`
}

// toModel converts a candidate. Category is left to memory validation so a
// bad one only rejects that candidate; an unknown source type fails the request.
func (m memoryRequest) toModel() (*model.Memory, error) {
	var sourceType types.SourceType
	if m.SourceType != "" {
		parsed, err := types.ParseSourceType(m.SourceType)
		if err != nil {
			return nil, goerr.Wrap(usecase.ErrInvalidInput, "invalid source_type", goerr.V("source_type", m.SourceType))
		}
		sourceType = parsed
	}

	return &model.Memory{
		Category:   types.Category(m.Category),
		Fact:       m.Fact,
		Confidence: m.Confidence,
		SourceType: sourceType,
		SourceID:   m.SourceID,
		Context:    m.Context,
	}, nil
}

type memoryResponse struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"`
	Fact           string    `json:"fact"`
	Confidence     float64   `json:"confidence"`
	SourceType     string    `json:"source_type,omitempty"`
	SourceID       string    `json:"source_id,omitempty"`
	Context        string    `json:"context,omitempty"`
	Verified       bool      `json:"verified"`
	NeedsEmbedding bool      `json:"needs_embedding"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdated    time.Time `json:"last_updated"`
}

func toMemoryResponse(m *model.Memory) memoryResponse {
	return memoryResponse{
		ID:             string(m.ID),
		Category:       m.Category.String(),
		Fact:           m.Fact,
		Confidence:     m.Confidence,
		SourceType:     string(m.SourceType),
		SourceID:       m.SourceID,
		Context:        m.Context,
		Verified:       m.Verified,
		NeedsEmbedding: m.NeedsEmbedding,
		CreatedAt:      m.CreatedAt,
		LastUpdated:    m.LastUpdated,
	}
}

func toMemoryResponses(memories []*model.Memory) []memoryResponse {
	resp := make([]memoryResponse, len(memories))
	for i, m := range memories {
		resp[i] = toMemoryResponse(m)
	}
	return resp
}

type patternsResponse struct {
	Established []memoryResponse `json:"established"`
	Recurring   []memoryResponse `json:"recurring"`
	Emerging    []memoryResponse `json:"emerging"`
}

type insightResponse struct {
	Category    string           `json:"category"`
	Patterns    patternsResponse `json:"patterns"`
	Confidence  float64          `json:"confidence"`
	LastUpdated time.Time        `json:"last_updated"`
}

func toInsightResponse(i *model.MemoryInsight) insightResponse {
	return insightResponse{
		Category: i.Category.String(),
		Patterns: patternsResponse{
			Established: toMemoryResponses(i.Patterns.Established),
			Recurring:   toMemoryResponses(i.Patterns.Recurring),
			Emerging:    toMemoryResponses(i.Patterns.Emerging),
		},
		Confidence:  i.Confidence,
		LastUpdated: i.LastUpdated,
	}
}

type chatMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type chatResponse struct {
	SessionID string              `json:"session_id"`
	Message   chatMessageResponse `json:"message"`
	Entries   int                 `json:"context_entries"`
}
