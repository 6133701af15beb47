package model

import (
	"time"

	"github.com/secmon-lab/mnemos/pkg/domain/types"
)

// Patterns partitions a category's memories by pattern tier
type Patterns struct {
	Established []*Memory
	Recurring   []*Memory
	Emerging    []*Memory
}

// MemoryInsight is derived per category on demand and never stored
type MemoryInsight struct {
	Category    types.Category
	Patterns    Patterns
	Confidence  float64
	LastUpdated time.Time
}

// Count returns the number of memories across all tiers
func (i *MemoryInsight) Count() int {
	return len(i.Patterns.Established) + len(i.Patterns.Recurring) + len(i.Patterns.Emerging)
}
