package embedding

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
)

// CosineSimilarity returns dot(a,b)/(|a||b|) within [-1,1]. Vectors of
// different length fail with model.ErrShapeMismatch. A zero vector on either
// side yields 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.Wrap(model.ErrShapeMismatch, "cannot compare vectors",
			goerr.V("len_a", len(a)),
			goerr.V("len_b", len(b)),
		)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}

	return math.Max(-1, math.Min(1, dot/denom)), nil
}
