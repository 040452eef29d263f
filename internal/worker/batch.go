package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/veracity/internal/consistency"
	"github.com/ppiankov/veracity/internal/model"
)

// maxLineBytes bounds a single JSON Lines record
const maxLineBytes = 4 << 20

// Detector defines the interface for running one detection
type Detector interface {
	DetectRequest(ctx context.Context, req model.DetectRequest, sampler consistency.Sampler) (model.DetectionResult, error)
}

// RequestLine is one record read from a JSON Lines file
type RequestLine struct {
	Line    int
	Request model.DetectRequest
	Err     error // Decode error; the request is not run
}

// DetectJob represents one detection in a batch
type DetectJob struct {
	Index    int
	Input    RequestLine
	Detector Detector
	Sampler  consistency.Sampler
}

// Execute executes the detection job
func (j *DetectJob) Execute(ctx context.Context) Result {
	res := &DetectJobResult{Index: j.Index, Line: j.Input.Line}
	if j.Input.Err != nil {
		res.Error = j.Input.Err
		return res
	}

	result, err := j.Detector.DetectRequest(ctx, j.Input.Request, j.Sampler)
	if err != nil {
		res.Error = err
		return res
	}
	res.Result = &result
	return res
}

// DetectJobResult represents the result of a detection job
type DetectJobResult struct {
	Index  int                    `json:"-"`
	Line   int                    `json:"line"`
	Result *model.DetectionResult `json:"result,omitempty"`
	Error  error                  `json:"-"`
}

// GetError returns the error from the detection
func (r *DetectJobResult) GetError() error {
	return r.Error
}

// BatchProcessor runs many detections concurrently
type BatchProcessor struct {
	detector    Detector
	sampler     consistency.Sampler
	concurrency int
}

// NewBatchProcessor creates a new batch processor. sampler may be nil; it
// is only used by requests that ask for resampling.
func NewBatchProcessor(detector Detector, sampler consistency.Sampler, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		detector:    detector,
		sampler:     sampler,
		concurrency: concurrency,
	}
}

// Process runs the requests and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, reqs []model.DetectRequest) []*DetectJobResult {
	lines := make([]RequestLine, len(reqs))
	for i, req := range reqs {
		lines[i] = RequestLine{Line: i + 1, Request: req}
	}
	return b.ProcessLines(ctx, lines)
}

// ProcessLines runs every decodable line and returns results in input order.
// Jobs that never ran because ctx ended carry the context error.
func (b *BatchProcessor) ProcessLines(ctx context.Context, lines []RequestLine) []*DetectJobResult {
	results := make([]*DetectJobResult, len(lines))
	if len(lines) == 0 {
		return results
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, line := range lines {
			job := &DetectJob{
				Index:    i,
				Input:    line,
				Detector: b.detector,
				Sampler:  b.sampler,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	for r := range pool.Results() {
		res := r.(*DetectJobResult)
		results[res.Index] = res
	}

	for i, res := range results {
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &DetectJobResult{Index: i, Line: lines[i].Line, Error: err}
		}
	}

	return results
}

// ProcessFile reads requests from a JSON Lines file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*DetectJobResult, error) {
	lines, err := ReadRequestsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}

	return b.ProcessLines(ctx, lines), nil
}

// ReadRequestsFromFile reads detection requests, one JSON object per line.
// Blank lines and lines starting with # are skipped; lines that fail to
// decode are returned with their error.
func ReadRequestsFromFile(filePath string) ([]RequestLine, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []RequestLine

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		req, err := model.DecodeDetectRequest([]byte(line))
		lines = append(lines, RequestLine{Line: lineNo, Request: req, Err: err})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
