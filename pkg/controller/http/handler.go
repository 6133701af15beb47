package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/usecase"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 100
)

func (s *Server) createJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	entry, err := s.uc.Journal.Create(r.Context(), chi.URLParam(r, "userID"), req.Content)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toJournalEntryResponse(entry))
}

func (s *Server) ingestMemories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Memories []memoryRequest `json:"memories"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	candidates := make([]*model.Memory, len(req.Memories))
	for i, m := range req.Memories {
		candidate, err := m.toModel()
		if err != nil {
			handleError(w, r, err)
			return
		}
		candidates[i] = candidate
	}

	result, err := s.uc.Memory.Ingest(r.Context(), chi.URLParam(r, "userID"), candidates)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{
		"created":  toMemoryResponses(result.Created),
		"rejected": result.Rejected,
	})
}

func (s *Server) verifyMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Verified *bool `json:"verified"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Verified == nil {
		handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "verified is required"))
		return
	}

	m, err := s.uc.Memory.SetVerified(r.Context(), chi.URLParam(r, "userID"), model.MemoryID(chi.URLParam(r, "memoryID")), *req.Verified)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toMemoryResponse(m))
}

func (s *Server) relatedMemories(w http.ResponseWriter, r *http.Request) {
	related, err := s.uc.Insight.FindRelated(r.Context(), chi.URLParam(r, "userID"), model.MemoryID(chi.URLParam(r, "memoryID")))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"memories": toMemoryResponses(related)})
}

func (s *Server) similarMemories(w http.ResponseWriter, r *http.Request) {
	limit := defaultSimilarLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxSimilarLimit {
			handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "limit must be between 1 and 100", goerr.V("limit", v)))
			return
		}
		limit = n
	}

	similar, err := s.uc.Insight.FindSimilar(r.Context(), chi.URLParam(r, "userID"), model.MemoryID(chi.URLParam(r, "memoryID")), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"memories": toMemoryResponses(similar)})
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.uc.Insight.AnalyzePatterns(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]insightResponse, len(insights))
	for i, insight := range insights {
		resp[i] = toInsightResponse(insight)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"insights": resp})
}

func (s *Server) backfillEmbeddings(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.Backfill.Run(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]int{
		"processed": result.Processed,
		"updated":   result.Updated,
		"failed":    result.Failed,
	})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	reply, err := s.uc.Chat.Send(r.Context(), chi.URLParam(r, "userID"), req.SessionID, req.Message)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, chatResponse{
		SessionID: reply.SessionID,
		Message: chatMessageResponse{
			ID:        string(reply.Message.ID),
			Role:      string(reply.Message.Role),
			Content:   reply.Message.Content,
			CreatedAt: reply.Message.CreatedAt,
		},
		Entries: len(reply.Context.RecentEntries),
	})
}
