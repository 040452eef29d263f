package score

import (
	"fmt"

	"github.com/ppiankov/veracity/internal/model"
)

const (
	overconfidenceFloor = 0.5
	contradictionFactor = 0.5
	unsupportedFactor   = 0.7
)

// Inputs are the sub-component outputs fused into one verdict
type Inputs struct {
	Aleatoric    float64
	Consistency  *model.ConsistencyCheck // nil when no sampler ran
	Verification model.VerificationSummary
}

// Fusion is the fused verdict
type Fusion struct {
	Confidence      float64
	Level           model.ConfidenceLevel
	IsHallucination bool
	Categories      []model.Category
	Signals         []model.Signal
}

// Scorer fuses evidence into a confidence score and generates signals
type Scorer struct {
	hallucinationThreshold float64
	consensusThreshold     float64
}

// NewScorer creates a new scorer
func NewScorer(hallucinationThreshold, consensusThreshold float64) *Scorer {
	return &Scorer{
		hallucinationThreshold: hallucinationThreshold,
		consensusThreshold:     consensusThreshold,
	}
}

// Fuse starts from full confidence and multiplies in one factor per fired
// rule. Every factor lies in [0,1], so confidence never increases.
func (s *Scorer) Fuse(in Inputs) Fusion {
	f := Fusion{
		Confidence: 1.0,
		Categories: []model.Category{},
		Signals:    []model.Signal{},
	}

	// 1. Hedging language
	if sig, ok := s.overconfidence(in.Aleatoric); ok {
		f.apply(sig)
	}

	// 2. Sample disagreement
	if sig, ok := s.inconsistency(in.Consistency); ok {
		f.apply(sig)
	}

	// 3. Contradicted claims
	if sig, ok := s.contradiction(in.Verification); ok {
		f.apply(sig)
	}

	// 4. Unsupported claims
	if sig, ok := s.unsupported(in.Verification); ok {
		f.apply(sig)
	}

	f.Level = model.LevelForScore(f.Confidence)
	f.IsHallucination = f.Confidence < 1-s.hallucinationThreshold
	return f
}

func (f *Fusion) apply(sig model.Signal) {
	f.Confidence *= clamp01(sig.Factor)
	f.Categories = append(f.Categories, sig.Category)
	f.Signals = append(f.Signals, sig)
}

// overconfidence fires on heavy hedging. The label is kept for
// compatibility even though the rule measures hedging, not certainty.
func (s *Scorer) overconfidence(aleatoric float64) (model.Signal, bool) {
	if aleatoric <= overconfidenceFloor {
		return model.Signal{}, false
	}

	factor := 1 - aleatoric
	return model.Signal{
		Category:    model.CategoryOverconfidence,
		Severity:    model.SeverityForFactor(factor),
		Description: fmt.Sprintf("High linguistic uncertainty: %.2f", aleatoric),
		Factor:      factor,
		Data: map[string]interface{}{
			"aleatoric_uncertainty": aleatoric,
			"threshold":             overconfidenceFloor,
			"formula":               "confidence * (1 - aleatoric_uncertainty)",
		},
	}, true
}

// inconsistency fires when sampled responses disagree
func (s *Scorer) inconsistency(check *model.ConsistencyCheck) (model.Signal, bool) {
	if check == nil || check.AgreementScore >= s.consensusThreshold {
		return model.Signal{}, false
	}

	factor := check.AgreementScore
	return model.Signal{
		Category:    model.CategoryFactualInconsistency,
		Severity:    model.SeverityForFactor(factor),
		Description: fmt.Sprintf("Low agreement across samples: %.2f (%d/%d samples)", check.AgreementScore, check.EffectiveSamples(), check.RequestedSamples),
		Factor:      factor,
		Data: map[string]interface{}{
			"agreement_score":     check.AgreementScore,
			"consensus_threshold": s.consensusThreshold,
			"samples":             check.EffectiveSamples(),
			"failed_samples":      len(check.Failures),
			"divergent_claims":    len(check.DivergentClaims),
			"formula":             "confidence * agreement_score",
		},
	}, true
}

// contradiction fires when context negates any claim
func (s *Scorer) contradiction(v model.VerificationSummary) (model.Signal, bool) {
	if v.ContradictedCount == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Category:    model.CategoryLogicalContradiction,
		Severity:    model.SeverityForFactor(contradictionFactor),
		Description: fmt.Sprintf("Contradicted claims: %d/%d", v.ContradictedCount, v.Total),
		Factor:      contradictionFactor,
		Data: map[string]interface{}{
			"contradicted": v.ContradictedCount,
			"total":        v.Total,
			"formula":      "confidence * 0.5",
		},
	}, true
}

// unsupported fires when unverified claims outnumber verified ones
func (s *Scorer) unsupported(v model.VerificationSummary) (model.Signal, bool) {
	if v.UnverifiedCount <= v.VerifiedCount {
		return model.Signal{}, false
	}

	return model.Signal{
		Category:    model.CategoryUnsupportedClaim,
		Severity:    model.SeverityForFactor(unsupportedFactor),
		Description: fmt.Sprintf("Unverified claims outnumber verified: %d > %d", v.UnverifiedCount, v.VerifiedCount),
		Factor:      unsupportedFactor,
		Data: map[string]interface{}{
			"unverified": v.UnverifiedCount,
			"verified":   v.VerifiedCount,
			"formula":    "confidence * 0.7",
		},
	}, true
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
