package pattern_test

import (
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/secmon-lab/mnemos/pkg/service/pattern"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newMemory(id string, category types.Category, fact string, confidence float64) *model.Memory {
	return &model.Memory{
		ID:         model.MemoryID(id),
		UserID:     "user-1",
		Category:   category,
		Fact:       fact,
		Confidence: confidence,
		CreatedAt:  baseTime,
	}
}

func almostEqual(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSignificantWords(t *testing.T) {
	words := pattern.SignificantWords("Feels burned-out from the WORKLOAD, again and again!")
	gt.Value(t, len(words)).Equal(3)
	for _, w := range []string{"feels", "burned", "workload"} {
		_, ok := words[w]
		gt.Bool(t, ok).True()
	}
	_, ok := words["from"]
	gt.Bool(t, ok).False()
	_, ok = words["the"]
	gt.Bool(t, ok).False()
}

func TestStringSimilarity(t *testing.T) {
	almostEqual(t, pattern.StringSimilarity("kitten", "sitting"), 1-3.0/7.0)
	almostEqual(t, pattern.StringSimilarity("  Same Text ", "same text"), 1)
	almostEqual(t, pattern.StringSimilarity("abc", "xyz"), 0)
}

func TestContextuallySimilar(t *testing.T) {
	m1 := newMemory("1", types.CategoryWork, "Feels burned out", 0.7)
	m2 := newMemory("2", types.CategoryWork, "Wants a vacation", 0.7)

	t.Run("false without context", func(t *testing.T) {
		gt.Bool(t, pattern.ContextuallySimilar(m1, m2)).False()
	})

	t.Run("false when only one side has context", func(t *testing.T) {
		a := m1.Copy()
		a.Context = "talked with manager about workload"
		gt.Bool(t, pattern.ContextuallySimilar(a, m2)).False()
	})

	t.Run("blank context is absent", func(t *testing.T) {
		a, b := m1.Copy(), m2.Copy()
		a.Context = "   "
		b.Context = "   "
		gt.NoError(t, a.Validate())
		gt.Bool(t, pattern.ContextuallySimilar(a, b)).False()
	})

	t.Run("true for close contexts", func(t *testing.T) {
		a, b := m1.Copy(), m2.Copy()
		a.Context = "talked with manager about workload"
		b.Context = "talked with manager about deadlines"
		gt.Bool(t, pattern.ContextuallySimilar(a, b)).True()
	})

	t.Run("false for unrelated contexts", func(t *testing.T) {
		a, b := m1.Copy(), m2.Copy()
		a.Context = "gym"
		b.Context = "quarterly budget review"
		gt.Bool(t, pattern.ContextuallySimilar(a, b)).False()
	})
}

func TestShareSignificantWords(t *testing.T) {
	a := newMemory("1", types.CategoryWork, "Deadline pressure from manager", 0.5)
	b := newMemory("2", types.CategoryWork, "Manager adds deadline stress", 0.5)
	c := newMemory("3", types.CategoryWork, "Manager is supportive", 0.5)

	gt.Bool(t, pattern.ShareSignificantWords(a, b)).True()
	gt.Bool(t, pattern.ShareSignificantWords(a, c)).False()
}

func TestTemporallyRelated(t *testing.T) {
	a := newMemory("1", types.CategoryWork, "first", 0.5)
	b := newMemory("2", types.CategoryWork, "second", 0.5)

	b.CreatedAt = baseTime.Add(7 * 24 * time.Hour)
	gt.Bool(t, pattern.TemporallyRelated(a, b)).True()
	gt.Bool(t, pattern.TemporallyRelated(b, a)).True()

	b.CreatedAt = baseTime.Add(7*24*time.Hour + time.Second)
	gt.Bool(t, pattern.TemporallyRelated(a, b)).False()
}

func TestSimilarity(t *testing.T) {
	t.Run("same category, same time, identical words", func(t *testing.T) {
		a := newMemory("1", types.CategoryWork, "Deadline pressure", 0.5)
		b := newMemory("2", types.CategoryWork, "deadline PRESSURE", 0.5)
		almostEqual(t, pattern.Similarity(a, b), 0.3+0.2+0.1)
	})

	t.Run("temporal signal decays linearly", func(t *testing.T) {
		a := newMemory("1", types.CategoryWork, "alpha", 0.5)
		b := newMemory("2", types.CategoryHealth, "omega", 0.5)
		b.CreatedAt = baseTime.Add(-84 * time.Hour)
		almostEqual(t, pattern.Similarity(a, b), 0.05)
	})

	t.Run("nothing in common", func(t *testing.T) {
		a := newMemory("1", types.CategoryWork, "alpha", 0.5)
		b := newMemory("2", types.CategoryHealth, "omega", 0.5)
		b.CreatedAt = baseTime.Add(30 * 24 * time.Hour)
		almostEqual(t, pattern.Similarity(a, b), 0)
	})

	t.Run("identical memories with context score 1", func(t *testing.T) {
		a := newMemory("1", types.CategoryWork, "Deadline pressure", 0.5)
		a.Context = "sprint review"
		b := a.Copy()
		almostEqual(t, pattern.Similarity(a, b), 1)
	})

	t.Run("symmetric and bounded", func(t *testing.T) {
		a := newMemory("1", types.CategoryWork, "Deadline pressure from manager", 0.5)
		a.Context = "weekly sync"
		b := newMemory("2", types.CategoryGoals, "Manager praised the project deadline", 0.5)
		b.Context = "weekly one on one"
		b.CreatedAt = baseTime.Add(36 * time.Hour)

		ab := pattern.Similarity(a, b)
		almostEqual(t, ab, pattern.Similarity(b, a))
		gt.Number(t, ab).GreaterOrEqual(0.0)
		gt.Number(t, ab).LessOrEqual(1.0)
	})
}

func TestClassify(t *testing.T) {
	t.Run("three related confident memories are established", func(t *testing.T) {
		group := []*model.Memory{
			newMemory("1", types.CategoryWork, "Struggles with deadline pressure", 0.85),
			newMemory("2", types.CategoryWork, "Deadline pressure keeps growing", 0.85),
			newMemory("3", types.CategoryWork, "Manager adds deadline pressure weekly", 0.85),
		}
		for _, m := range group {
			gt.Value(t, pattern.Classify(m, group)).Equal(types.PatternTierEstablished)
		}
	})

	t.Run("two related memories are recurring", func(t *testing.T) {
		group := []*model.Memory{
			newMemory("1", types.CategoryWork, "Struggles with deadline pressure", 0.65),
			newMemory("2", types.CategoryWork, "Deadline pressure keeps growing", 0.65),
		}
		for _, m := range group {
			gt.Value(t, pattern.Classify(m, group)).Equal(types.PatternTierRecurring)
		}
	})

	t.Run("two related memories with low confidence are still recurring", func(t *testing.T) {
		group := []*model.Memory{
			newMemory("1", types.CategoryWork, "Struggles with deadline pressure", 0.4),
			newMemory("2", types.CategoryWork, "Deadline pressure keeps growing", 0.4),
		}
		gt.Value(t, pattern.Classify(group[0], group)).Equal(types.PatternTierRecurring)
	})

	t.Run("isolated low confidence memory is one-time", func(t *testing.T) {
		m := newMemory("1", types.CategoryPreferences, "Enjoys pottery", 0.3)
		group := []*model.Memory{
			m,
			newMemory("2", types.CategoryPreferences, "Prefers tea over coffee", 0.3),
		}
		gt.Value(t, pattern.Classify(m, group)).Equal(types.PatternTierOneTime)
		gt.Value(t, pattern.Classify(m, group).DisplayName()).Equal("emerging")
	})

	t.Run("isolated confident memory is recurring", func(t *testing.T) {
		m := newMemory("1", types.CategoryPreferences, "Enjoys pottery", 0.7)
		gt.Value(t, pattern.Classify(m, []*model.Memory{m})).Equal(types.PatternTierRecurring)
	})

	t.Run("confidence exactly 0.8 is not established", func(t *testing.T) {
		group := []*model.Memory{
			newMemory("1", types.CategoryWork, "Struggles with deadline pressure", 0.8),
			newMemory("2", types.CategoryWork, "Deadline pressure keeps growing", 0.8),
			newMemory("3", types.CategoryWork, "Manager adds deadline pressure weekly", 0.8),
		}
		gt.Value(t, pattern.Classify(group[0], group)).Equal(types.PatternTierRecurring)
	})
}

func TestAnalyzePatterns(t *testing.T) {
	now := baseTime.Add(100 * 24 * time.Hour)

	work1 := newMemory("w1", types.CategoryWork, "Struggles with deadline pressure", 0.9)
	work2 := newMemory("w2", types.CategoryWork, "Deadline pressure keeps growing", 0.9)
	work3 := newMemory("w3", types.CategoryWork, "Manager adds deadline pressure weekly", 0.9)
	work3.LastUpdated = baseTime.Add(48 * time.Hour)
	hobby := newMemory("p1", types.CategoryPreferences, "Enjoys pottery", 0.3)
	family := newMemory("f1", types.CategoryFamily, "Has two younger sisters", 0.7)

	insights := pattern.AnalyzePatterns([]*model.Memory{hobby, work1, family, work2, work3}, now)
	gt.Array(t, insights).Length(3)

	gt.Value(t, insights[0].Category).Equal(types.CategoryFamily)
	gt.Value(t, insights[1].Category).Equal(types.CategoryWork)
	gt.Value(t, insights[2].Category).Equal(types.CategoryPreferences)

	workInsight := insights[1]
	gt.Array(t, workInsight.Patterns.Established).Length(3)
	gt.Array(t, workInsight.Patterns.Recurring).Length(0)
	gt.Array(t, workInsight.Patterns.Emerging).Length(0)
	almostEqual(t, workInsight.Confidence, 0.9)
	gt.Value(t, workInsight.LastUpdated).Equal(baseTime.Add(48 * time.Hour))

	gt.Array(t, insights[2].Patterns.Emerging).Length(1)
	gt.Array(t, insights[0].Patterns.Recurring).Length(1)
}

func TestAnalyzePatternsEmpty(t *testing.T) {
	gt.Array(t, pattern.AnalyzePatterns(nil, baseTime)).Length(0)
}

func TestSummarizeEmptyGroup(t *testing.T) {
	insight := pattern.Summarize(types.CategoryGoals, nil, baseTime)
	gt.Value(t, insight.Confidence).Equal(0.0)
	gt.Value(t, insight.LastUpdated).Equal(baseTime)
	gt.Value(t, insight.Count()).Equal(0)
}

func TestFindRelated(t *testing.T) {
	source := newMemory("src", types.CategoryWork, "Deadline pressure from manager", 0.8)
	source.Context = "weekly sync"

	strong := newMemory("strong", types.CategoryWork, "Manager deadline pressure again", 0.6)
	strong.Context = "weekly sync"

	wordsOnly := newMemory("words", types.CategoryGoals, "Wants less deadline pressure", 0.6)
	wordsOnly.CreatedAt = baseTime.Add(60 * 24 * time.Hour)

	timeOnly := newMemory("time", types.CategoryHealth, "Started running", 0.6)
	timeOnly.CreatedAt = baseTime.Add(24 * time.Hour)

	unrelated := newMemory("none", types.CategoryHealth, "Started swimming", 0.6)
	unrelated.CreatedAt = baseTime.Add(90 * 24 * time.Hour)

	related := pattern.FindRelated(source, []*model.Memory{unrelated, timeOnly, source, wordsOnly, strong})
	gt.Array(t, related).Length(3)
	gt.Value(t, related[0].ID).Equal(model.MemoryID("strong"))
	gt.Value(t, related[1].ID).Equal(model.MemoryID("words"))
	gt.Value(t, related[2].ID).Equal(model.MemoryID("time"))
}

func TestFindRelatedKeepsInputOrderOnTies(t *testing.T) {
	source := newMemory("src", types.CategoryWork, "alpha", 0.8)
	a := newMemory("a", types.CategoryHealth, "beta", 0.5)
	b := newMemory("b", types.CategoryHealth, "gamma", 0.5)
	c := newMemory("c", types.CategoryHealth, "delta", 0.5)

	related := pattern.FindRelated(source, []*model.Memory{b, c, a})
	gt.Array(t, related).Length(3)
	gt.Value(t, related[0].ID).Equal(model.MemoryID("b"))
	gt.Value(t, related[1].ID).Equal(model.MemoryID("c"))
	gt.Value(t, related[2].ID).Equal(model.MemoryID("a"))
}

func TestFindRelatedExcludesSelfByID(t *testing.T) {
	source := newMemory("src", types.CategoryWork, "Deadline pressure", 0.8)
	clone := source.Copy()

	gt.Array(t, pattern.FindRelated(source, []*model.Memory{clone})).Length(0)
}
