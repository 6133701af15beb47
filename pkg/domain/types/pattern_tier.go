package types

// PatternTier classifies how strongly a memory's theme repeats across a user's history
type PatternTier string

const (
	PatternTierEstablished PatternTier = "established"
	PatternTierRecurring   PatternTier = "recurring"
	PatternTierOneTime     PatternTier = "one_time"
)

// String returns the string representation of the tier
func (p PatternTier) String() string {
	return string(p)
}

// DisplayName returns the label shown to users. One-time memories are
// presented as "emerging".
func (p PatternTier) DisplayName() string {
	switch p {
	case PatternTierEstablished:
		return "established"
	case PatternTierRecurring:
		return "recurring"
	default:
		return "emerging"
	}
}
