package model

// Evidence is the structured record of every sub-component output that fed a verdict
type Evidence struct {
	AleatoricUncertainty float64             `json:"aleatoric_uncertainty"`
	EpistemicUncertainty *float64            `json:"epistemic_uncertainty,omitempty"` // Present only when a consistency check ran
	DropoutRate          float64             `json:"dropout_rate"`                    // Recorded for telemetry, not applied
	Consistency          *ConsistencyCheck   `json:"consistency_check,omitempty"`     // Absent when no sampler was supplied
	FactVerification     VerificationSummary `json:"fact_verification"`
	Signals              []Signal            `json:"signals"` // One entry per fired rule
}

// ConsistencyCheck is the outcome of sampling the same input several times
type ConsistencyCheck struct {
	Samples           []string        `json:"samples"`           // Successful samples, ordered by sample index
	RequestedSamples  int             `json:"requested_samples"` // Configured sample count
	AgreementScore    float64         `json:"agreement_score"`
	ConsensusResponse *string         `json:"consensus_response,omitempty"` // Nil below the consensus threshold
	DivergentClaims   []string        `json:"divergent_claims"`
	Failures          []SampleFailure `json:"failures,omitempty"`
}

// EffectiveSamples returns the number of samples that actually contributed
func (c *ConsistencyCheck) EffectiveSamples() int {
	return len(c.Samples)
}

// SampleFailure records a sampler call that errored, panicked, or was cancelled
type SampleFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Signal is a transparent record of one evidence rule that lowered confidence
type Signal struct {
	Category    Category               `json:"category"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Factor      float64                `json:"factor"`         // Multiplier applied to confidence
	Data        map[string]interface{} `json:"data,omitempty"` // Formula and inputs
}

// SignalSeverity indicates how strongly a signal lowered confidence
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// SeverityForFactor classifies a confidence multiplier
func SeverityForFactor(factor float64) SignalSeverity {
	switch {
	case factor <= 0.5:
		return SeverityCritical
	case factor < 0.8:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
