package model

// ClaimStatus is the outcome of verifying a single claim
type ClaimStatus string

const (
	StatusVerified     ClaimStatus = "verified"     // Supported by the knowledge base or context
	StatusContradicted ClaimStatus = "contradicted" // Context negates the claim
	StatusUnverified   ClaimStatus = "unverified"   // No supporting or contradicting evidence
)

// ClaimSource identifies which evidence source decided the claim status
type ClaimSource string

const (
	SourceNone          ClaimSource = ""
	SourceKnowledgeBase ClaimSource = "knowledge_base"
	SourceContext       ClaimSource = "context"
)

// ClaimVerification is the verification record for one extracted claim
type ClaimVerification struct {
	ClaimText  string      `json:"claim_text"`
	Status     ClaimStatus `json:"status"`
	Source     ClaimSource `json:"source,omitempty"` // Empty when no source decided the status
	Confidence float64     `json:"confidence"`
}

// VerificationSummary aggregates the verification of every claim in a response
type VerificationSummary struct {
	Total             int                 `json:"total"`
	VerifiedCount     int                 `json:"verified_count"`
	ContradictedCount int                 `json:"contradicted_count"`
	UnverifiedCount   int                 `json:"unverified_count"`
	Details           []ClaimVerification `json:"details"`
}

// Add records a claim verification and updates the counters
func (s *VerificationSummary) Add(v ClaimVerification) {
	s.Details = append(s.Details, v)
	s.Total++

	switch v.Status {
	case StatusVerified:
		s.VerifiedCount++
	case StatusContradicted:
		s.ContradictedCount++
	default:
		s.UnverifiedCount++
	}
}
