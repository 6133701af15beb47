package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemos/pkg/domain/model"
)

// EmbeddingProvider generates a fixed-length vector for a text
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompleteOptions controls a single completion request
type CompleteOptions struct {
	SystemPrompt string
	// JSON requests a JSON object as the response body
	JSON bool
}

// Completer is the external text-completion service
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

// ConversationStore persists chat contexts between turns
type ConversationStore interface {
	Save(ctx context.Context, chatCtx *model.ChatContext) error
	Load(ctx context.Context, userID, sessionID string) (*model.ChatContext, error)
}
