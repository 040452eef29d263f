package model

import "time"

// DetectionResult is the verdict produced once per detection call.
// It is plain data and is never mutated after it is returned.
type DetectionResult struct {
	ID                    string          `json:"id"`
	IsHallucination       bool            `json:"is_hallucination"`
	ConfidenceScore       float64         `json:"confidence_score"` // 1.0 = fully trustworthy
	ConfidenceLevel       ConfidenceLevel `json:"confidence_level"`
	Categories            []Category      `json:"categories"`
	Evidence              Evidence        `json:"evidence"`
	Reasoning             string          `json:"reasoning"`
	MitigationSuggestions []string        `json:"mitigation_suggestions"`
	CreatedAt             time.Time       `json:"created_at"`
}

// HasCategory reports whether the given category fired
func (r DetectionResult) HasCategory(c Category) bool {
	for _, got := range r.Categories {
		if got == c {
			return true
		}
	}
	return false
}

// Category is a closed set of hallucination patterns. Categories are not
// mutually exclusive; each one signals that a specific evidence rule fired.
type Category string

const (
	CategoryFactualInconsistency Category = "factual_inconsistency"
	CategoryTemporalConflict     Category = "temporal_conflict"
	CategoryLogicalContradiction Category = "logical_contradiction"
	CategoryUnsupportedClaim     Category = "unsupported_claim"
	CategoryOverconfidence       Category = "overconfidence"
	CategoryAttributionError     Category = "attribution_error"
)

// AllCategories returns every category in declaration order
func AllCategories() []Category {
	return []Category{
		CategoryFactualInconsistency,
		CategoryTemporalConflict,
		CategoryLogicalContradiction,
		CategoryUnsupportedClaim,
		CategoryOverconfidence,
		CategoryAttributionError,
	}
}

// Valid reports whether c belongs to the closed category set
func (c Category) Valid() bool {
	switch c {
	case CategoryFactualInconsistency, CategoryTemporalConflict, CategoryLogicalContradiction,
		CategoryUnsupportedClaim, CategoryOverconfidence, CategoryAttributionError:
		return true
	default:
		return false
	}
}

// ConfidenceLevel buckets a confidence score
type ConfidenceLevel string

const (
	LevelVeryHigh ConfidenceLevel = "very_high" // >= 0.9
	LevelHigh     ConfidenceLevel = "high"      // >= 0.75
	LevelMedium   ConfidenceLevel = "medium"    // >= 0.6
	LevelLow      ConfidenceLevel = "low"       // >= 0.4
	LevelVeryLow  ConfidenceLevel = "very_low"
)

// LevelForScore maps a confidence score onto its bucket
func LevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.9:
		return LevelVeryHigh
	case score >= 0.75:
		return LevelHigh
	case score >= 0.6:
		return LevelMedium
	case score >= 0.4:
		return LevelLow
	default:
		return LevelVeryLow
	}
}
