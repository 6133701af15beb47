package memory

import (
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is the in-process backend. It is used by tests and by `serve`
// when no Firestore project is configured.
type Memory struct {
	memory  *memoryRepository
	journal *journalRepository
}

var _ interfaces.Repository = &Memory{}

// Option configures the in-memory backend
type Option func(*Memory)

// WithDraftTrigger emulates the database trigger that inserts a draft
// memory for every new journal entry.
func WithDraftTrigger() Option {
	return func(m *Memory) {
		m.journal.onInsert = m.memory.insertDraft
	}
}

func New(opts ...Option) *Memory {
	m := &Memory{
		memory:  newMemoryRepository(),
		journal: newJournalRepository(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Memory) Memory() interfaces.MemoryRepository {
	return m.memory
}

func (m *Memory) Journal() interfaces.JournalRepository {
	return m.journal
}

func (m *Memory) Close() error {
	return nil
}
