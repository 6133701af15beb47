package conversation

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process Backend
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ Backend = &Memory{}

// NewMemory creates an empty in-process backend
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

type memoryWriter struct {
	bytes.Buffer
	commit func([]byte)
}

func (w *memoryWriter) Close() error {
	w.commit(w.Bytes())
	return nil
}

func (m *Memory) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &memoryWriter{
		commit: func(data []byte) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.objects[key] = bytes.Clone(data)
		},
	}, nil
}

func (m *Memory) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "object not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
