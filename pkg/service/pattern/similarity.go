// Package pattern scores similarity between memories and classifies how
// strongly a memory's theme recurs. All functions are pure.
package pattern

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
)

// Signal weights of the composite score. They sum to 1.
const (
	ContextWeight    = 0.4
	SharedWordWeight = 0.3
	CategoryWeight   = 0.2
	TemporalWeight   = 0.1
)

const (
	// TemporalWindow is the largest creation gap for which two memories are related in time
	TemporalWindow = 7 * 24 * time.Hour

	// ContextSimilarityThreshold must be exceeded for two contexts to count as similar
	ContextSimilarityThreshold = 0.3

	// MinSharedWords is the intersection size for ShareSignificantWords
	MinSharedWords = 2

	// MinWordLength is the shortest token kept as a significant word
	MinWordLength = 4
)

var wordSplitter = regexp.MustCompile(`\W+`)

// Similarity returns the composite score of m1 and m2 in [0,1]
func Similarity(m1, m2 *model.Memory) float64 {
	score := ContextWeight * clamp01(contextScore(m1, m2))
	score += SharedWordWeight * clamp01(sharedWordRatio(m1, m2))
	if m1.Category == m2.Category {
		score += CategoryWeight
	}
	score += TemporalWeight * clamp01(temporalScore(m1, m2))
	return clamp01(score)
}

// ContextuallySimilar reports whether both memories carry a context and the
// contexts are more than 30% alike.
func ContextuallySimilar(m1, m2 *model.Memory) bool {
	if !m1.HasContext() || !m2.HasContext() {
		return false
	}
	return StringSimilarity(m1.Context, m2.Context) > ContextSimilarityThreshold
}

// ShareSignificantWords reports whether the facts share at least two significant words
func ShareSignificantWords(m1, m2 *model.Memory) bool {
	return len(commonWords(SignificantWords(m1.Fact), SignificantWords(m2.Fact))) >= MinSharedWords
}

// TemporallyRelated reports whether the memories were created within seven days of each other
func TemporallyRelated(m1, m2 *model.Memory) bool {
	return createdGap(m1, m2) <= TemporalWindow
}

// StringSimilarity is 1 - levenshtein(a,b)/max(len(a),len(b)) on trimmed,
// lower-cased text, measured in runes.
func StringSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}

	distance := levenshtein.ComputeDistance(a, b)
	return clamp01(1 - float64(distance)/float64(longest))
}

// SignificantWords returns the distinct lower-cased tokens of text that are
// at least four characters long and not stop-words.
func SignificantWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, token := range wordSplitter.Split(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(token) < MinWordLength {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		words[token] = struct{}{}
	}
	return words
}

func contextScore(m1, m2 *model.Memory) float64 {
	if !m1.HasContext() || !m2.HasContext() {
		return 0
	}
	return StringSimilarity(m1.Context, m2.Context)
}

func sharedWordRatio(m1, m2 *model.Memory) float64 {
	a := SignificantWords(m1.Fact)
	b := SignificantWords(m2.Fact)

	larger := max(len(a), len(b))
	if larger == 0 {
		return 0
	}
	return float64(len(commonWords(a, b))) / float64(larger)
}

func temporalScore(m1, m2 *model.Memory) float64 {
	gap := createdGap(m1, m2)
	if gap > TemporalWindow {
		return 0
	}
	return 1 - gap.Hours()/TemporalWindow.Hours()
}

func createdGap(m1, m2 *model.Memory) time.Duration {
	gap := m1.CreatedAt.Sub(m2.CreatedAt)
	if gap < 0 {
		gap = -gap
	}
	return gap
}

func commonWords(a, b map[string]struct{}) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	var common []string
	for w := range a {
		if _, ok := b[w]; ok {
			common = append(common, w)
		}
	}
	return common
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
