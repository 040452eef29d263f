// Package verify checks extracted claims against a knowledge base and the
// caller-supplied context.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/veracity/internal/extract"
	"github.com/ppiankov/veracity/internal/knowledge"
	"github.com/ppiankov/veracity/internal/model"
)

const (
	// supportRatio is the share of claim tokens a context value must cover
	supportRatio = 0.5

	// leadingTokens is how many opening claim tokens are matched against
	// negated context
	leadingTokens = 3

	contextConfidence       = 0.7
	contradictionConfidence = 0.9
)

var negationTokens = map[string]bool{
	"not": true, "never": true, "no": true, "false": true, "incorrect": true,
}

// Verifier verifies claims. It only reads from its knowledge base and is
// safe for concurrent use.
type Verifier struct {
	kb knowledge.Store
}

// NewVerifier creates a Verifier. kb may be nil.
func NewVerifier(kb knowledge.Store) *Verifier {
	return &Verifier{kb: kb}
}

// Verify extracts the claims of response and classifies each one
func (v *Verifier) Verify(response string, context map[string]interface{}) model.VerificationSummary {
	summary := model.VerificationSummary{Details: []model.ClaimVerification{}}

	texts := contextTexts(context)
	for _, claim := range extract.VerificationClaims(response) {
		summary.Add(v.verifyClaim(claim, texts))
	}
	return summary
}

// contextText is the token view of one textual context value
type contextText struct {
	tokens     map[string]struct{}
	normalized string
	negated    bool
}

func (v *Verifier) verifyClaim(claim string, texts []contextText) model.ClaimVerification {
	if v.kb != nil {
		if rec, ok := v.kb.Lookup(knowledge.Fingerprint(claim)); ok {
			return model.ClaimVerification{
				ClaimText:  claim,
				Status:     model.StatusVerified,
				Source:     model.SourceKnowledgeBase,
				Confidence: rec.ConfidenceOrDefault(),
			}
		}
	}

	claimTokens := extract.TokenSet(claim)
	normalized := extract.NormalizeClaim(claim)
	for _, text := range texts {
		if supports(claimTokens, normalized, text) {
			return model.ClaimVerification{
				ClaimText:  claim,
				Status:     model.StatusVerified,
				Source:     model.SourceContext,
				Confidence: contextConfidence,
			}
		}
	}

	leading := extract.Tokens(claim)
	if len(leading) > leadingTokens {
		leading = leading[:leadingTokens]
	}
	for _, text := range texts {
		if contradicts(leading, text) {
			return model.ClaimVerification{
				ClaimText:  claim,
				Status:     model.StatusContradicted,
				Source:     model.SourceContext,
				Confidence: contradictionConfidence,
			}
		}
	}

	return model.ClaimVerification{
		ClaimText: claim,
		Status:    model.StatusUnverified,
		Source:    model.SourceNone,
	}
}

// supports reports token coverage above the support ratio. Claims with no
// word tokens (all symbols) fall back to verbatim containment.
func supports(claimTokens map[string]struct{}, normalized string, text contextText) bool {
	if len(claimTokens) == 0 {
		return normalized != "" && strings.Contains(text.normalized, normalized)
	}

	overlap := 0
	for tok := range claimTokens {
		if _, ok := text.tokens[tok]; ok {
			overlap++
		}
	}
	return float64(overlap) > supportRatio*float64(len(claimTokens))
}

func contradicts(leading []string, text contextText) bool {
	if !text.negated {
		return false
	}
	for _, tok := range leading {
		if _, ok := text.tokens[tok]; ok {
			return true
		}
	}
	return false
}

// contextTexts collects the textual context values in key order
func contextTexts(context map[string]interface{}) []contextText {
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var texts []contextText
	for _, k := range keys {
		s, ok := asText(context[k])
		if !ok {
			continue
		}

		tokens := extract.TokenSet(s)
		texts = append(texts, contextText{
			tokens:     tokens,
			normalized: extract.NormalizeClaim(s),
			negated:    hasNegation(tokens),
		})
	}
	return texts
}

func asText(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

func hasNegation(tokens map[string]struct{}) bool {
	for tok := range tokens {
		if negationTokens[tok] || strings.HasSuffix(tok, "n't") {
			return true
		}
	}
	return false
}
