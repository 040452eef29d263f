package detect

import (
	"fmt"
	"strings"

	"github.com/ppiankov/veracity/internal/model"
)

// NoMitigation is the sole suggestion when no category fired
const NoMitigation = "Response appears reliable - no mitigation needed"

var mitigations = map[model.Category]string{
	model.CategoryOverconfidence:       "Request agent to explicitly state uncertainty and provide confidence intervals",
	model.CategoryUnsupportedClaim:     "Ask agent to cite specific sources or evidence for claims",
	model.CategoryFactualInconsistency: "Generate multiple responses and compare for consistency",
	model.CategoryLogicalContradiction: "Enable contradiction detection agent before finalizing response",
	model.CategoryTemporalConflict:     "Cross-check dates and time-sensitive facts against current sources",
	model.CategoryAttributionError:     "Verify that quotes and facts are attributed to the correct sources",
}

// mitigationOrder fixes the order suggestions are listed in
var mitigationOrder = []model.Category{
	model.CategoryOverconfidence,
	model.CategoryUnsupportedClaim,
	model.CategoryFactualInconsistency,
	model.CategoryLogicalContradiction,
	model.CategoryTemporalConflict,
	model.CategoryAttributionError,
}

// Mitigation returns the advisory for a category
func Mitigation(c model.Category) string {
	return mitigations[c]
}

// suggestMitigations returns one advisory per fired category
func suggestMitigations(r model.DetectionResult) []string {
	var out []string
	for _, c := range mitigationOrder {
		if r.HasCategory(c) {
			out = append(out, mitigations[c])
		}
	}
	if len(out) == 0 {
		return []string{NoMitigation}
	}
	return out
}

// explain summarises why the result scored the way it did
func explain(r model.DetectionResult) string {
	if len(r.Categories) == 0 {
		return fmt.Sprintf("Response appears reliable (confidence: %.2f). No hallucination patterns detected.", r.ConfidenceScore)
	}

	names := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		names[i] = string(c)
	}

	parts := []string{
		fmt.Sprintf("Potential hallucination detected (confidence: %.2f).", r.ConfidenceScore),
		fmt.Sprintf("Identified patterns: %s.", strings.Join(names, ", ")),
	}

	ev := r.Evidence
	if r.HasCategory(model.CategoryOverconfidence) {
		parts = append(parts, fmt.Sprintf("High linguistic uncertainty detected (%.2f).", ev.AleatoricUncertainty))
	}
	if r.HasCategory(model.CategoryFactualInconsistency) && ev.Consistency != nil {
		c := ev.Consistency
		msg := fmt.Sprintf("Low agreement across samples (%.2f over %d/%d samples).", c.AgreementScore, c.EffectiveSamples(), c.RequestedSamples)
		if len(c.DivergentClaims) > 0 {
			msg += fmt.Sprintf(" %d divergent claims.", len(c.DivergentClaims))
		}
		if len(c.Failures) > 0 {
			msg += fmt.Sprintf(" %d samples failed.", len(c.Failures))
		}
		parts = append(parts, msg)
	}
	if r.HasCategory(model.CategoryLogicalContradiction) {
		parts = append(parts, fmt.Sprintf("%d contradicted claims found.", ev.FactVerification.ContradictedCount))
	}
	// Unverified claims are reported even when they do not outnumber verified ones
	if ev.FactVerification.UnverifiedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d unsupported claims detected.", ev.FactVerification.UnverifiedCount))
	}

	return strings.Join(parts, " ")
}
