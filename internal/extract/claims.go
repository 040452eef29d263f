package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// ClaimExtractor splits responses into checkable factual claims
type ClaimExtractor struct {
	minLength     int
	hedgePrefixes []string
	copulas       map[string]bool
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		minLength: 15,
		hedgePrefixes: []string{
			"i think", "in my opinion", "perhaps",
		},
		copulas: map[string]bool{
			"is": true, "are": true, "was": true,
			"were": true, "has": true, "have": true,
		},
	}
}

var defaultExtractor = NewClaimExtractor()

// VerificationClaims returns the claims of text that fact verification evaluates
func VerificationClaims(text string) []string {
	return defaultExtractor.VerificationClaims(text)
}

// FactualClaims returns the factual-looking claims of text
func FactualClaims(text string) []string {
	return defaultExtractor.FactualClaims(text)
}

// VerificationClaims keeps every sentence longer than the minimum length
// that does not open with a subjective hedge.
func (e *ClaimExtractor) VerificationClaims(text string) []string {
	var claims []string
	for _, sentence := range SplitSentences(text) {
		if e.assertive(sentence) {
			claims = append(claims, sentence)
		}
	}
	return claims
}

// FactualClaims narrows VerificationClaims to sentences carrying a
// copular or possessive verb.
func (e *ClaimExtractor) FactualClaims(text string) []string {
	var claims []string
	for _, sentence := range SplitSentences(text) {
		if !e.assertive(sentence) {
			continue
		}
		for _, tok := range Tokens(sentence) {
			if e.copulas[tok] {
				claims = append(claims, sentence)
				break
			}
		}
	}
	return claims
}

func (e *ClaimExtractor) assertive(sentence string) bool {
	if utf8.RuneCountInString(sentence) <= e.minLength {
		return false
	}

	lower := strings.ToLower(sentence)
	for _, prefix := range e.hedgePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

// SplitSentences splits text on runs of terminal punctuation, trimming each
// sentence and dropping empty ones
func SplitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// Tokens lower-cases text, splits it on whitespace and trims surrounding
// punctuation from every token
func Tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenSet returns the distinct tokens of text
func TokenSet(text string) map[string]struct{} {
	tokens := Tokens(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// NormalizeClaim folds a claim for equality comparisons
func NormalizeClaim(claim string) string {
	return strings.Join(strings.Fields(strings.ToLower(claim)), " ")
}

// VisibleText returns the visible text of an HTML document
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(extractVisibleText(doc)), nil
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
