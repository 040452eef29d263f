package consistency

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceSampler returns responses[i] for the i-th call
func sequenceSampler(responses ...string) (Sampler, *int32) {
	var calls int32
	return SamplerFunc(func(ctx context.Context, input map[string]interface{}) (string, error) {
		n := atomic.AddInt32(&calls, 1) - 1
		return responses[int(n)%len(responses)], nil
	}), &calls
}

func TestCheck_CallsSamplerExactlySampleCountTimes(t *testing.T) {
	sampler, calls := sequenceSampler("Paris is the capital of France.")
	checker := NewChecker(Config{SampleCount: 5, ConsensusThreshold: 0.7, Concurrency: 3})

	check := checker.Check(context.Background(), sampler, map[string]interface{}{"query": "capital?"})

	assert.Equal(t, int32(5), atomic.LoadInt32(calls))
	assert.Equal(t, 5, check.RequestedSamples)
	assert.Len(t, check.Samples, 5)
}

func TestCheck_IdenticalSamples(t *testing.T) {
	sampler, _ := sequenceSampler("Paris is the capital of France.")
	checker := NewChecker(Config{SampleCount: 4, ConsensusThreshold: 0.7, Concurrency: 2})

	check := checker.Check(context.Background(), sampler, nil)

	assert.InDelta(t, 1.0, check.AgreementScore, 1e-9)
	require.NotNil(t, check.ConsensusResponse)
	assert.Equal(t, "Paris is the capital of France.", *check.ConsensusResponse)
	assert.Empty(t, check.DivergentClaims)
	assert.Empty(t, check.Failures)
}

func TestCheck_NoConsensusUnderDisagreement(t *testing.T) {
	sampler, _ := sequenceSampler(
		"Paris is the capital of France.",
		"Lyon was founded by Romans long ago.",
		"Bananas are yellow tropical fruits indeed.",
	)
	checker := NewChecker(Config{SampleCount: 3, ConsensusThreshold: 0.7, Concurrency: 1})

	check := checker.Check(context.Background(), sampler, nil)

	assert.Less(t, check.AgreementScore, 0.7)
	assert.Nil(t, check.ConsensusResponse)
	// with three samples every claim reaches the 30% floor
	assert.Empty(t, check.DivergentClaims)
}

func TestCheck_SingleSample(t *testing.T) {
	sampler, _ := sequenceSampler("Only one answer is available here.")
	checker := NewChecker(Config{SampleCount: 1, ConsensusThreshold: 0.9, Concurrency: 1})

	check := checker.Check(context.Background(), sampler, nil)

	assert.Equal(t, 1.0, check.AgreementScore)
	require.NotNil(t, check.ConsensusResponse)
	assert.Equal(t, "Only one answer is available here.", *check.ConsensusResponse)
}

func TestCheck_ConcurrentSamplesAllCollected(t *testing.T) {
	var next int32
	sampler := SamplerFunc(func(ctx context.Context, input map[string]interface{}) (string, error) {
		n := atomic.AddInt32(&next, 1) - 1
		// later calls finish first
		time.Sleep(time.Duration(5-n) * 5 * time.Millisecond)
		return fmt.Sprintf("sample %d", n), nil
	})

	checker := NewChecker(Config{SampleCount: 5, ConsensusThreshold: 0.5, Concurrency: 5})
	check := checker.Check(context.Background(), sampler, nil)

	require.Len(t, check.Samples, 5)
	seen := make(map[string]bool)
	for _, s := range check.Samples {
		seen[s] = true
	}
	assert.Len(t, seen, 5)
}

func TestCheck_SequentialSamplesKeepCallOrder(t *testing.T) {
	sampler, _ := sequenceSampler("first answer", "second answer", "third answer")
	checker := NewChecker(Config{SampleCount: 3, ConsensusThreshold: 0.1, Concurrency: 1})

	check := checker.Check(context.Background(), sampler, nil)

	assert.Equal(t, []string{"first answer", "second answer", "third answer"}, check.Samples)
}

func TestCheck_FailuresShrinkEffectiveSamples(t *testing.T) {
	var calls int32
	sampler := SamplerFunc(func(ctx context.Context, input map[string]interface{}) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 2:
			return "", errors.New("upstream unavailable")
		case 4:
			panic("sampler exploded")
		}
		return "The answer is forty two.", nil
	})

	checker := NewChecker(Config{SampleCount: 5, ConsensusThreshold: 0.7, Concurrency: 1})
	check := checker.Check(context.Background(), sampler, nil)

	assert.Equal(t, 5, check.RequestedSamples)
	assert.Equal(t, 3, check.EffectiveSamples())
	require.Len(t, check.Failures, 2)
	assert.Equal(t, 1, check.Failures[0].Index)
	assert.Contains(t, check.Failures[0].Error, "upstream unavailable")
	assert.Equal(t, 3, check.Failures[1].Index)
	assert.Contains(t, check.Failures[1].Error, "panic")
	assert.InDelta(t, 1.0, check.AgreementScore, 1e-9)
}

func TestCheck_AllFail(t *testing.T) {
	sampler := SamplerFunc(func(ctx context.Context, input map[string]interface{}) (string, error) {
		return "", errors.New("boom")
	})

	checker := NewChecker(Config{SampleCount: 3, ConsensusThreshold: 0.7, Concurrency: 2})
	check := checker.Check(context.Background(), sampler, nil)

	assert.Empty(t, check.Samples)
	assert.Len(t, check.Failures, 3)
	assert.Nil(t, check.ConsensusResponse)
	assert.Empty(t, check.DivergentClaims)
}

func TestCheck_CancelledContext(t *testing.T) {
	sampler, calls := sequenceSampler("never used")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewChecker(Config{SampleCount: 3, ConsensusThreshold: 0.7, Concurrency: 1})
	check := checker.Check(ctx, sampler, nil)

	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	assert.Len(t, check.Failures, 3)
	assert.Contains(t, check.Failures[0].Error, context.Canceled.Error())
}

func TestConsensusIndex_PrefersCentralSample(t *testing.T) {
	checker := NewChecker(Config{SampleCount: 3, ConsensusThreshold: 0.1, Concurrency: 1})
	samples := []string{
		"red green",
		"red green blue",
		"green blue",
	}
	assert.Equal(t, 1, checker.consensusIndex(samples))
}

func TestConsensusIndex_TiesGoToLowestIndex(t *testing.T) {
	checker := NewChecker(Config{SampleCount: 2, ConsensusThreshold: 0.1, Concurrency: 1})
	assert.Equal(t, 0, checker.consensusIndex([]string{"a b", "b c"}))
}

func TestDivergentClaims(t *testing.T) {
	common := "The tower is three hundred meters tall."
	samples := []string{
		common + " It was built in 1889.",
		common,
		common,
		common + " It was painted green in 1999.",
	}

	// 4 samples: a claim needs fewer than 1.2 occurrences to diverge
	got := divergentClaims(samples)
	assert.Equal(t, []string{"It was built in 1889", "It was painted green in 1999"}, got)
}

func TestDivergentClaims_DedupedWithinSample(t *testing.T) {
	samples := []string{
		"The tower is very tall indeed. The tower is very tall indeed.",
		"The sky is blue over the city.",
		"The sky is blue over the city.",
		"The sky is blue over the city.",
	}
	// counted once in the first sample, so 1 < 1.2
	assert.Equal(t, []string{"The tower is very tall indeed"}, divergentClaims(samples))
}

func TestDivergentClaims_Capped(t *testing.T) {
	var samples []string
	for i := 0; i < 8; i++ {
		samples = append(samples, fmt.Sprintf("Fact number %d is unique to this sample.", i))
	}
	got := divergentClaims(samples)
	assert.Len(t, got, 5)
	assert.Equal(t, "Fact number 0 is unique to this sample", got[0])
}
