// Package detect fuses uncertainty, self-consistency and fact verification
// into a single hallucination verdict.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ppiankov/veracity/internal/consistency"
	"github.com/ppiankov/veracity/internal/knowledge"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/score"
	"github.com/ppiankov/veracity/internal/similarity"
	"github.com/ppiankov/veracity/internal/uncertainty"
	"github.com/ppiankov/veracity/internal/verify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/ppiankov/veracity/internal/detect")

// Detector orchestrates a detection. Its configuration and knowledge base
// are fixed at construction, so one Detector serves concurrent callers.
type Detector struct {
	config     model.DetectorConfig
	quantifier *uncertainty.Quantifier
	checker    *consistency.Checker
	verifier   *verify.Verifier
	scorer     *score.Scorer
	logger     *slog.Logger
	similarity similarity.TextSimilarity
	now        func() time.Time
}

// Option configures a Detector
type Option func(*Detector)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSimilarity replaces the token-overlap baseline used to compare samples
func WithSimilarity(sim similarity.TextSimilarity) Option {
	return func(d *Detector) {
		if sim != nil {
			d.similarity = sim
		}
	}
}

// WithClock overrides the clock used to stamp results
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDetector creates a Detector. kb may be nil when no knowledge base is
// available.
func NewDetector(cfg model.DetectorConfig, kb knowledge.Store, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		config:     cfg,
		logger:     slog.Default(),
		similarity: similarity.Default,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.quantifier = uncertainty.New(
		uncertainty.WithSimilarity(d.similarity),
		uncertainty.WithDropout(cfg.DropoutRate, cfg.UncertaintySamples),
	)
	d.checker = consistency.NewChecker(consistency.Config{
		SampleCount:        cfg.SampleCount,
		ConsensusThreshold: cfg.ConsensusThreshold,
		Concurrency:        cfg.SamplerConcurrency,
	}, consistency.WithSimilarity(d.similarity), consistency.WithLogger(d.logger))
	d.verifier = verify.NewVerifier(kb)
	d.scorer = score.NewScorer(cfg.HallucinationThreshold, cfg.ConsensusThreshold)

	return d, nil
}

// Config returns the detector configuration
func (d *Detector) Config() model.DetectorConfig {
	return d.config
}

// Detect assesses response against the input context. When sampler is
// non-nil it is called SampleCount times with input. The only error returned
// is an *model.InvalidInputError.
func (d *Detector) Detect(ctx context.Context, response string, input map[string]interface{}, sampler consistency.Sampler) (model.DetectionResult, error) {
	start := time.Now()
	sampled := sampler != nil

	ctx, span := tracer.Start(ctx, "detect.Detect", trace.WithAttributes(
		attribute.Int("response.bytes", len(response)),
		attribute.Int("context.keys", len(input)),
		attribute.Bool("sampled", sampled),
	))
	defer span.End()

	if err := d.validate(response); err != nil {
		invalidInputsTotal.Inc()
		span.RecordError(err)
		return model.DetectionResult{}, err
	}
	if input == nil {
		input = map[string]interface{}{}
	}

	// 1. Hedging language
	evidence := model.Evidence{
		AleatoricUncertainty: d.quantifier.Aleatoric(response),
		DropoutRate:          d.quantifier.DropoutRate,
	}

	// 2. Self-consistency
	if sampled {
		check := d.checker.Check(ctx, sampler, input)
		epistemic := d.quantifier.Epistemic(check.Samples)
		evidence.Consistency = &check
		evidence.EpistemicUncertainty = &epistemic
		samplerFailuresTotal.Add(float64(len(check.Failures)))
	}

	// 3. Fact verification
	evidence.FactVerification = d.verifier.Verify(response, input)

	// 4. Fusion
	fusion := d.scorer.Fuse(score.Inputs{
		Aleatoric:    evidence.AleatoricUncertainty,
		Consistency:  evidence.Consistency,
		Verification: evidence.FactVerification,
	})
	evidence.Signals = fusion.Signals

	result := model.DetectionResult{
		ID:              uuid.NewString(),
		IsHallucination: fusion.IsHallucination,
		ConfidenceScore: fusion.Confidence,
		ConfidenceLevel: fusion.Level,
		Categories:      fusion.Categories,
		Evidence:        evidence,
		CreatedAt:       d.now().UTC(),
	}
	result.Reasoning = explain(result)
	result.MitigationSuggestions = suggestMitigations(result)

	d.record(result, sampled, time.Since(start))
	span.SetAttributes(
		attribute.Float64("confidence", result.ConfidenceScore),
		attribute.Bool("hallucination", result.IsHallucination),
		attribute.Int("categories", len(result.Categories)),
	)

	d.logger.Debug("detection complete",
		"id", result.ID,
		"confidence", result.ConfidenceScore,
		"hallucination", result.IsHallucination,
		"categories", result.Categories,
		"claims", evidence.FactVerification.Total,
		"duration", time.Since(start),
	)

	return result, nil
}

// DetectRequest runs a detection for a decoded request. The sampler is only
// used when the request asks for resampling.
func (d *Detector) DetectRequest(ctx context.Context, req model.DetectRequest, sampler consistency.Sampler) (model.DetectionResult, error) {
	if !req.Resample {
		sampler = nil
	}
	return d.Detect(ctx, req.Response, req.Context, sampler)
}

func (d *Detector) validate(response string) error {
	if !utf8.ValidString(response) {
		return model.NewInvalidInputError("response", "not valid UTF-8")
	}
	if limit := d.config.MaxResponseBytes; limit > 0 && len(response) > limit {
		return model.NewInvalidInputError("response", fmt.Sprintf("%d bytes exceeds limit of %d", len(response), limit))
	}
	return nil
}

func (d *Detector) record(r model.DetectionResult, sampled bool, elapsed time.Duration) {
	verdict := "reliable"
	if r.IsHallucination {
		verdict = "hallucination"
	}
	detectionsTotal.WithLabelValues(verdict).Inc()
	for _, c := range r.Categories {
		categoriesTotal.WithLabelValues(string(c)).Inc()
	}
	confidenceScore.Observe(r.ConfidenceScore)
	detectionDuration.WithLabelValues(strconv.FormatBool(sampled)).Observe(elapsed.Seconds())
}
