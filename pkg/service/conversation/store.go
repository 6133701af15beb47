// Package conversation persists chat contexts between turns.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/utils/safe"
)

// ErrNotFound is returned by a Backend when no object exists for a key
var ErrNotFound = goerr.New("conversation not found")

// Backend stores opaque objects by key
type Backend interface {
	// Put returns a writer saving an object. The object is committed on Close.
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get returns a reader of an object, or ErrNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// DefaultPrefix is the key prefix used when none is configured
const DefaultPrefix = "conversations"

// Store implements interfaces.ConversationStore as JSON objects on a Backend
type Store struct {
	backend Backend
	prefix  string
}

var _ interfaces.ConversationStore = &Store{}

// Option is a functional option for Store configuration
type Option func(*Store)

// WithPrefix sets the key prefix of stored conversations
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Store on the given backend
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		prefix:  DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(userID, sessionID string) string {
	return path.Join(s.prefix, userID, sessionID+".json")
}

// Save writes chatCtx, replacing any previous state of the session
func (s *Store) Save(ctx context.Context, chatCtx *model.ChatContext) error {
	if chatCtx == nil {
		return goerr.New("chat context is nil")
	}
	key := s.key(chatCtx.UserID, chatCtx.SessionID)

	w, err := s.backend.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open conversation writer", goerr.V("key", key))
	}

	if err := json.NewEncoder(w).Encode(chatCtx); err != nil {
		safe.Close(ctx, w, "key", key)
		return goerr.Wrap(err, "failed to encode conversation", goerr.V("key", key))
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to save conversation", goerr.V("key", key))
	}
	return nil
}

// Load returns the stored context of a session, or nil when none exists
func (s *Store) Load(ctx context.Context, userID, sessionID string) (*model.ChatContext, error) {
	key := s.key(userID, sessionID)

	r, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to open conversation", goerr.V("key", key))
	}
	defer safe.Close(ctx, r, "key", key)

	var chatCtx model.ChatContext
	if err := json.NewDecoder(r).Decode(&chatCtx); err != nil {
		return nil, goerr.Wrap(err, "failed to decode conversation", goerr.V("key", key))
	}
	return &chatCtx, nil
}
