package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy shared by services and use cases
var (
	// ErrValidation means a candidate memory failed validation; never retried
	ErrValidation = goerr.New("memory validation failed")

	// ErrTransientProvider marks timeouts, rate limits and 5xx responses from a provider
	ErrTransientProvider = goerr.New("transient provider error")

	// ErrPermanentProvider marks malformed requests, auth failures and other non-retryable provider errors
	ErrPermanentProvider = goerr.New("permanent provider error")

	// ErrShapeMismatch means two vectors of different length were compared
	ErrShapeMismatch = goerr.New("vector length mismatch")

	// ErrNotFound is returned by every repository backend for a missing record
	ErrNotFound = goerr.New("not found")

	// ErrPersistence wraps read/write failures against the store
	ErrPersistence = goerr.New("persistence error")

	// ErrChatUnavailable is the single user-visible failure after chat retries are exhausted
	ErrChatUnavailable = goerr.New("chat is temporarily unavailable, please try again")
)

// Context keys for error values
const (
	UserIDKey     = "user_id"
	MemoryIDKey   = "memory_id"
	CategoryKey   = "category"
	ConfidenceKey = "confidence"
	LengthKey     = "length"
	SourceIDKey   = "source_id"
	SourceTypeKey = "source_type"
)
