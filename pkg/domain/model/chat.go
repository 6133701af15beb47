package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Bounds of the chat context window
const (
	ChatContextEntryLimit   = 5
	ChatContextMessageLimit = 5
)

// ChatRole is the author of a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessageID is a UUID-based identifier for ChatMessage
type ChatMessageID string

// NewChatMessageID generates a new UUID v4 ChatMessageID
func NewChatMessageID() ChatMessageID {
	return ChatMessageID(uuid.New().String())
}

// ChatMessage is a single turn in a conversation
type ChatMessage struct {
	ID        ChatMessageID `json:"id"`
	Role      ChatRole      `json:"role"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
}

// ChatContext is the bounded context sent along with a chat turn. It holds
// at most ChatContextEntryLimit journal entries (newest first) and at most
// ChatContextMessageLimit messages (oldest evicted first).
type ChatContext struct {
	UserID        string          `json:"user_id"`
	SessionID     string          `json:"session_id"`
	RecentEntries []*JournalEntry `json:"recent_entries"`
	Messages      []ChatMessage   `json:"messages"`
}

// NewChatContext builds a context from the given journal entries. The input
// slice is not modified.
func NewChatContext(userID, sessionID string, entries []*JournalEntry) *ChatContext {
	sorted := make([]*JournalEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > ChatContextEntryLimit {
		sorted = sorted[:ChatContextEntryLimit]
	}

	return &ChatContext{
		UserID:        userID,
		SessionID:     sessionID,
		RecentEntries: sorted,
		Messages:      []ChatMessage{},
	}
}

// WithMessages returns a new context with msgs appended to the sliding
// message window. The receiver is left untouched.
func (c *ChatContext) WithMessages(msgs ...ChatMessage) *ChatContext {
	merged := make([]ChatMessage, 0, len(c.Messages)+len(msgs))
	merged = append(merged, c.Messages...)
	merged = append(merged, msgs...)
	if len(merged) > ChatContextMessageLimit {
		merged = merged[len(merged)-ChatContextMessageLimit:]
	}

	entries := make([]*JournalEntry, len(c.RecentEntries))
	copy(entries, c.RecentEntries)

	return &ChatContext{
		UserID:        c.UserID,
		SessionID:     c.SessionID,
		RecentEntries: entries,
		Messages:      merged,
	}
}
