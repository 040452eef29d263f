// Package consistency measures how much independently generated responses
// to the same input agree with one another.
package consistency

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/veracity/internal/extract"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/similarity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	// divergenceRatio flags claims seen in fewer than this share of samples
	divergenceRatio = 0.3

	// maxDivergentClaims caps the divergent claims reported
	maxDivergentClaims = 5
)

var tracer = otel.Tracer("github.com/ppiankov/veracity/internal/consistency")

// Sampler produces one candidate response for the given input. Successive
// calls may return different text.
type Sampler interface {
	Generate(ctx context.Context, input map[string]interface{}) (string, error)
}

// SamplerFunc adapts a plain function to the Sampler interface
type SamplerFunc func(ctx context.Context, input map[string]interface{}) (string, error)

// Generate calls f
func (f SamplerFunc) Generate(ctx context.Context, input map[string]interface{}) (string, error) {
	return f(ctx, input)
}

// Config controls a consistency check
type Config struct {
	SampleCount        int
	ConsensusThreshold float64
	Concurrency        int // Max sampler calls in flight
}

// Checker runs self-consistency checks. It holds no per-call state.
type Checker struct {
	config     Config
	similarity similarity.TextSimilarity
	logger     *slog.Logger
}

// Option configures a Checker
type Option func(*Checker)

// WithSimilarity overrides the similarity used to compare samples
func WithSimilarity(sim similarity.TextSimilarity) Option {
	return func(c *Checker) {
		if sim != nil {
			c.similarity = sim
		}
	}
}

// WithLogger sets the logger used for failed samples
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a Checker
func NewChecker(cfg Config, opts ...Option) *Checker {
	if cfg.SampleCount < 1 {
		cfg.SampleCount = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	c := &Checker{
		config:     cfg,
		similarity: similarity.Default,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sampleResult struct {
	text string
	err  error
}

// Check calls the sampler SampleCount times and measures agreement among
// the samples. Failed calls are recorded and dropped; Check never fails.
func (c *Checker) Check(ctx context.Context, sampler Sampler, input map[string]interface{}) model.ConsistencyCheck {
	ctx, span := tracer.Start(ctx, "consistency.Check")
	defer span.End()

	results := c.collect(ctx, sampler, input)

	check := model.ConsistencyCheck{
		RequestedSamples: c.config.SampleCount,
		Samples:          []string{},
		DivergentClaims:  []string{},
	}

	for i, r := range results {
		if r.err != nil {
			check.Failures = append(check.Failures, model.SampleFailure{Index: i, Error: r.err.Error()})
			c.logger.Warn("sample failed", "index", i, "error", r.err)
			continue
		}
		check.Samples = append(check.Samples, r.text)
	}

	check.AgreementScore = similarity.MeanPairwise(c.similarity, check.Samples)

	if len(check.Samples) > 0 && check.AgreementScore >= c.config.ConsensusThreshold {
		consensus := check.Samples[c.consensusIndex(check.Samples)]
		check.ConsensusResponse = &consensus
	}

	check.DivergentClaims = divergentClaims(check.Samples)

	span.SetAttributes(
		attribute.Int("samples.requested", check.RequestedSamples),
		attribute.Int("samples.effective", check.EffectiveSamples()),
		attribute.Float64("agreement", check.AgreementScore),
	)
	if len(check.Failures) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d samples failed", len(check.Failures)))
	}

	return check
}

// collect runs the sampler calls concurrently, storing each outcome at its
// sample index
func (c *Checker) collect(ctx context.Context, sampler Sampler, input map[string]interface{}) []sampleResult {
	results := make([]sampleResult, c.config.SampleCount)

	var g errgroup.Group
	g.SetLimit(c.config.Concurrency)

	for i := range results {
		g.Go(func() error {
			results[i] = generate(ctx, sampler, input)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func generate(ctx context.Context, sampler Sampler, input map[string]interface{}) (res sampleResult) {
	defer func() {
		if r := recover(); r != nil {
			res = sampleResult{err: fmt.Errorf("sampler panic: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return sampleResult{err: err}
	}

	text, err := sampler.Generate(ctx, input)
	if err != nil {
		return sampleResult{err: err}
	}
	return sampleResult{text: text}
}

// consensusIndex picks the sample with the highest mean similarity to the
// others. Ties go to the lowest index.
func (c *Checker) consensusIndex(samples []string) int {
	if len(samples) < 2 {
		return 0
	}

	best, bestScore := 0, -1.0
	for i := range samples {
		var total float64
		for j := range samples {
			if i != j {
				total += c.similarity.Similarity(samples[i], samples[j])
			}
		}
		mean := total / float64(len(samples)-1)
		if mean > bestScore {
			best, bestScore = i, mean
		}
	}
	return best
}

// divergentClaims returns claims appearing in fewer than 30% of samples,
// in order of first appearance
func divergentClaims(samples []string) []string {
	divergent := []string{}
	if len(samples) == 0 {
		return divergent
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]string)
	var order []string

	for _, sample := range samples {
		seen := make(map[string]bool)
		for _, claim := range extract.FactualClaims(sample) {
			key := extract.NormalizeClaim(claim)
			if seen[key] {
				continue
			}
			seen[key] = true

			if _, ok := firstSeen[key]; !ok {
				firstSeen[key] = claim
				order = append(order, key)
			}
			counts[key]++
		}
	}

	limit := divergenceRatio * float64(len(samples))
	for _, key := range order {
		if float64(counts[key]) < limit {
			divergent = append(divergent, firstSeen[key])
			if len(divergent) == maxDivergentClaims {
				break
			}
		}
	}
	return divergent
}
