// Package sampler provides production samplers that draw independent
// responses from a language model for self-consistency checks.
package sampler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/veracity/internal/consistency"
)

// systemPrompt frames every sampled completion
const systemPrompt = "Answer the user's request directly and factually. Do not mention that you are being sampled."

// promptKeys are checked in order for a ready-made prompt
var promptKeys = []string{"query", "prompt", "question"}

// Provider is a sampler backed by a model API
type Provider interface {
	consistency.Sampler

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// BuildPrompt turns detection input into a prompt. A query, prompt or
// question entry is used verbatim; otherwise every textual entry is
// listed as "key: value" in key order.
func BuildPrompt(input map[string]interface{}) string {
	for _, key := range promptKeys {
		if v, ok := input[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}

	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch v := input[k].(type) {
		case string:
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		case fmt.Stringer:
			fmt.Fprintf(&b, "%s: %s\n", k, v.String())
		case bool, int, int64, float64:
			fmt.Fprintf(&b, "%s: %v\n", k, v)
		}
	}
	return strings.TrimSpace(b.String())
}
