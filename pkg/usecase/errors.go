package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrInvalidInput marks requests rejected before touching the store
	ErrInvalidInput = goerr.New("invalid input")

	// ErrEmbeddingDisabled is returned when an operation needs the embedding provider
	ErrEmbeddingDisabled = goerr.New("embedding provider is not configured")
)

// Context keys for error values
const (
	EntryIDKey   = "entry_id"
	SessionIDKey = "session_id"
)
