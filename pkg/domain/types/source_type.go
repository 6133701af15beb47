package types

import "fmt"

// SourceType identifies what kind of record a memory was extracted from
type SourceType string

const (
	SourceTypeJournalEntry SourceType = "journal_entry"
	SourceTypeChatMessage  SourceType = "chat_message"
)

// IsValid checks if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeJournalEntry,
		SourceTypeChatMessage:
		return true
	default:
		return false
	}
}

// String returns the string representation of the source type
func (s SourceType) String() string {
	return string(s)
}

// ParseSourceType parses a string into a SourceType
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid source type: %s", s)
	}
	return st, nil
}
