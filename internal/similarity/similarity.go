// Package similarity scores how alike two texts are.
package similarity

import "github.com/ppiankov/veracity/internal/extract"

// TextSimilarity scores two texts in [0,1]. Implementations must be
// symmetric and return 1.0 for identical inputs.
type TextSimilarity interface {
	Similarity(a, b string) float64
}

// Jaccard is the token-set overlap baseline
type Jaccard struct{}

// Similarity returns |A∩B| / |A∪B| over the token sets of a and b.
// Two empty texts are identical; one empty text shares nothing.
func (Jaccard) Similarity(a, b string) float64 {
	setA := extract.TokenSet(a)
	setB := extract.TokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Default is the similarity used when none is configured
var Default TextSimilarity = Jaccard{}

// MeanPairwise returns the mean similarity over all unordered pairs of
// texts. Fewer than two texts have nothing to disagree with and score 1.0.
func MeanPairwise(sim TextSimilarity, texts []string) float64 {
	if len(texts) < 2 {
		return 1.0
	}

	var total float64
	pairs := 0
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			total += sim.Similarity(texts[i], texts[j])
			pairs++
		}
	}
	return total / float64(pairs)
}
