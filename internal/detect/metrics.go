package detect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// detectionsTotal counts completed detections.
	// Labels: verdict (hallucination, reliable)
	detectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "veracity",
		Subsystem: "detector",
		Name:      "detections_total",
		Help:      "Total detections by verdict",
	}, []string{"verdict"})

	// categoriesTotal counts fired hallucination categories.
	// Labels: category
	categoriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "veracity",
		Subsystem: "detector",
		Name:      "categories_total",
		Help:      "Total fired hallucination categories",
	}, []string{"category"})

	// confidenceScore tracks the distribution of confidence scores
	confidenceScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "veracity",
		Subsystem: "detector",
		Name:      "confidence",
		Help:      "Distribution of detection confidence scores",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1.0},
	})

	// samplerFailuresTotal counts sampler calls dropped from consistency checks
	samplerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "veracity",
		Subsystem: "detector",
		Name:      "sampler_failures_total",
		Help:      "Total sampler calls that failed during consistency checks",
	})

	// invalidInputsTotal counts rejected detection calls
	invalidInputsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "veracity",
		Subsystem: "detector",
		Name:      "invalid_inputs_total",
		Help:      "Total detection calls rejected as invalid input",
	})

	// detectionDuration measures end-to-end detection latency.
	// Labels: sampled (true, false)
	detectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "veracity",
		Subsystem: "detector",
		Name:      "duration_seconds",
		Help:      "Detection latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"sampled"})
)
