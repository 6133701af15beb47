package pattern

import (
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
)

// Tier thresholds
const (
	EstablishedMinRelated    = 3
	EstablishedMinConfidence = 0.8
	RecurringMinRelated      = 2
	RecurringMinConfidence   = 0.6
)

// Related reports whether two memories belong to the same theme for
// classification purposes.
func Related(m1, m2 *model.Memory) bool {
	return ContextuallySimilar(m1, m2) || ShareSignificantWords(m1, m2)
}

// CountRelated counts members of group related to m. The group is the
// memory's category group and may contain m itself, which then counts when
// it carries a context or two significant words.
func CountRelated(m *model.Memory, group []*model.Memory) int {
	count := 0
	for _, peer := range group {
		if Related(m, peer) {
			count++
		}
	}
	return count
}

// Classify assigns m a pattern tier from its related-member count within
// group and its own confidence.
func Classify(m *model.Memory, group []*model.Memory) types.PatternTier {
	related := CountRelated(m, group)

	switch {
	case related >= EstablishedMinRelated && m.Confidence > EstablishedMinConfidence:
		return types.PatternTierEstablished
	case related >= RecurringMinRelated || m.Confidence > RecurringMinConfidence:
		return types.PatternTierRecurring
	default:
		return types.PatternTierOneTime
	}
}
