package model

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntryID is a UUID-based identifier for JournalEntry
type JournalEntryID string

// NewJournalEntryID generates a new UUID v4 JournalEntryID
func NewJournalEntryID() JournalEntryID {
	return JournalEntryID(uuid.New().String())
}

// JournalEntry is a raw journal text written by a user
type JournalEntry struct {
	ID        JournalEntryID
	UserID    string
	Content   string
	CreatedAt time.Time
}
