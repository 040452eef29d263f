// Package uncertainty estimates how unsure a response is, both from its own
// wording and from disagreement between alternative responses.
package uncertainty

import (
	"regexp"
	"strings"

	"github.com/ppiankov/veracity/internal/similarity"
)

const (
	// BaselineAleatoric is returned when a response carries no hedging
	BaselineAleatoric = 0.1

	// BaselineEpistemic is returned when fewer than two variants exist
	BaselineEpistemic = 0.5
)

// Tier groups hedge markers of equal weight
type Tier struct {
	Name    string
	Weight  float64
	Markers []string
}

// DefaultTiers returns the hedge marker tiers, strongest first
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "very_high", Weight: 0.8, Markers: []string{
			"might", "maybe", "perhaps", "possibly", "uncertain", "unclear", "not sure", "probably not",
		}},
		{Name: "high", Weight: 0.6, Markers: []string{
			"likely", "probably", "seems", "appears", "suggests",
		}},
		{Name: "medium", Weight: 0.4, Markers: []string{
			"could", "may", "might be",
		}},
		{Name: "low", Weight: 0.2, Markers: []string{
			"should", "expected", "typically",
		}},
	}
}

type marker struct {
	text    string
	weight  float64
	pattern *regexp.Regexp
}

// Quantifier computes aleatoric and epistemic uncertainty. It is
// stateless after construction and safe for concurrent use.
type Quantifier struct {
	similarity similarity.TextSimilarity
	markers    []marker

	// Carried for telemetry; not applied to either estimate.
	DropoutRate float64
	Samples     int
}

// Option configures a Quantifier
type Option func(*Quantifier)

// WithSimilarity overrides the similarity used for epistemic uncertainty
func WithSimilarity(sim similarity.TextSimilarity) Option {
	return func(q *Quantifier) {
		if sim != nil {
			q.similarity = sim
		}
	}
}

// WithDropout records the Monte Carlo dropout settings
func WithDropout(rate float64, samples int) Option {
	return func(q *Quantifier) {
		q.DropoutRate = rate
		q.Samples = samples
	}
}

// New creates a Quantifier using the default marker tiers
func New(opts ...Option) *Quantifier {
	q := &Quantifier{
		similarity: similarity.Default,
	}

	for _, tier := range DefaultTiers() {
		for _, m := range tier.Markers {
			q.markers = append(q.markers, marker{
				text:    m,
				weight:  tier.Weight,
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(m) + `\b`),
			})
		}
	}

	for _, opt := range opts {
		opt(q)
	}
	return q
}

// MatchedMarkers returns every distinct hedge marker present in response
func (q *Quantifier) MatchedMarkers(response string) []string {
	var matched []string
	for _, m := range q.markers {
		if m.pattern.MatchString(response) {
			matched = append(matched, m.text)
		}
	}
	return matched
}

// Aleatoric scores hedging language in [0,1]: the mean tier weight of the
// matched markers, or the baseline when none match
func (q *Quantifier) Aleatoric(response string) float64 {
	if strings.TrimSpace(response) == "" {
		return BaselineAleatoric
	}

	var sum float64
	count := 0
	for _, m := range q.markers {
		if m.pattern.MatchString(response) {
			sum += m.weight
			count++
		}
	}

	if count == 0 {
		return BaselineAleatoric
	}
	return min(1.0, sum/float64(count))
}

// Epistemic returns 1 minus the mean pairwise similarity of variants
func (q *Quantifier) Epistemic(variants []string) float64 {
	if len(variants) < 2 {
		return BaselineEpistemic
	}
	return 1.0 - similarity.MeanPairwise(q.similarity, variants)
}
