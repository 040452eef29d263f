package uncertainty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAleatoric_Baseline(t *testing.T) {
	q := New()

	for _, response := range []string{
		"",
		"   ",
		"Earth orbits the Sun.",
		"Water boils at 100 degrees Celsius at sea level.",
		"Mayor Smith opened the bridge.", // "may" only as a prefix
	} {
		assert.Equal(t, BaselineAleatoric, q.Aleatoric(response), response)
	}
}

func TestAleatoric_Tiers(t *testing.T) {
	q := New()

	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"very high", "Maybe the bridge opened in 1990.", 0.8},
		{"high", "The bridge likely opened in 1990.", 0.6},
		{"medium", "The bridge could have opened in 1990.", 0.4},
		{"low", "The bridge typically opens in spring.", 0.2},
		{"mixed", "Maybe it opened, it typically does.", 0.5},
		{"case insensitive", "PROBABLY it opened.", 0.6},
		{"repeats count once", "Maybe, maybe, maybe.", 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, q.Aleatoric(tt.response), 1e-9)
		})
	}
}

func TestAleatoric_Bounded(t *testing.T) {
	q := New()
	response := "Maybe perhaps possibly it might be unclear, uncertain, not sure, probably not."
	got := q.Aleatoric(response)

	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestMatchedMarkers(t *testing.T) {
	q := New()
	matched := q.MatchedMarkers("It might be raining.")
	assert.ElementsMatch(t, []string{"might", "might be"}, matched)
}

func TestEpistemic(t *testing.T) {
	q := New()

	assert.Equal(t, BaselineEpistemic, q.Epistemic(nil))
	assert.Equal(t, BaselineEpistemic, q.Epistemic([]string{"single answer"}))
	assert.InDelta(t, 0.0, q.Epistemic([]string{"paris is the capital", "Paris is the capital."}), 1e-9)
	assert.InDelta(t, 1.0, q.Epistemic([]string{"red apples", "blue oceans"}), 1e-9)
}

type constSimilarity float64

func (c constSimilarity) Similarity(a, b string) float64 { return float64(c) }

func TestEpistemic_CustomSimilarity(t *testing.T) {
	q := New(WithSimilarity(constSimilarity(0.25)))
	assert.InDelta(t, 0.75, q.Epistemic([]string{"a", "b", "c"}), 1e-9)
}

func TestWithDropout(t *testing.T) {
	q := New(WithDropout(0.1, 10))
	assert.Equal(t, 0.1, q.DropoutRate)
	assert.Equal(t, 10, q.Samples)
}
