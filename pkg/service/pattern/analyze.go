package pattern

import (
	"sort"
	"time"

	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
)

// AnalyzePatterns groups memories by category and partitions each group by
// tier. Insights follow types.AllCategories order; categories without
// memories are omitted.
func AnalyzePatterns(memories []*model.Memory, now time.Time) []*model.MemoryInsight {
	groups := make(map[types.Category][]*model.Memory)
	for _, m := range memories {
		if m == nil {
			continue
		}
		groups[m.Category] = append(groups[m.Category], m)
	}

	insights := make([]*model.MemoryInsight, 0, len(groups))
	for _, category := range types.AllCategories() {
		group, ok := groups[category]
		if !ok {
			continue
		}
		insights = append(insights, Summarize(category, group, now))
	}
	return insights
}

// Summarize builds the insight of a single category group. An empty group
// has confidence 0 and is stamped with now.
func Summarize(category types.Category, group []*model.Memory, now time.Time) *model.MemoryInsight {
	insight := &model.MemoryInsight{
		Category:    category,
		LastUpdated: now,
	}
	if len(group) == 0 {
		return insight
	}

	var total float64
	var latest time.Time
	for _, m := range group {
		switch Classify(m, group) {
		case types.PatternTierEstablished:
			insight.Patterns.Established = append(insight.Patterns.Established, m)
		case types.PatternTierRecurring:
			insight.Patterns.Recurring = append(insight.Patterns.Recurring, m)
		default:
			insight.Patterns.Emerging = append(insight.Patterns.Emerging, m)
		}

		total += m.Confidence
		if ts := m.Timestamp(); ts.After(latest) {
			latest = ts
		}
	}

	insight.Confidence = total / float64(len(group))
	if !latest.IsZero() {
		insight.LastUpdated = latest
	}
	return insight
}

// FindRelated returns the memories related to m by context, shared words or
// time, most similar first. Ties keep the input order. m itself is excluded.
func FindRelated(m *model.Memory, memories []*model.Memory) []*model.Memory {
	type scored struct {
		memory *model.Memory
		score  float64
	}

	var candidates []scored
	for _, peer := range memories {
		if peer == nil || peer == m || (m.ID != "" && peer.ID == m.ID) {
			continue
		}
		if !ContextuallySimilar(m, peer) && !ShareSignificantWords(m, peer) && !TemporallyRelated(m, peer) {
			continue
		}
		candidates = append(candidates, scored{memory: peer, score: Similarity(m, peer)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	related := make([]*model.Memory, len(candidates))
	for i, c := range candidates {
		related[i] = c.memory
	}
	return related
}
