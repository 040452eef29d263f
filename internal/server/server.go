// Package server exposes detection over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/veracity/internal/consistency"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps request bodies before decoding
const maxBodyBytes = 8 << 20

// maxBatchSize caps the number of requests in one batch call
const maxBatchSize = 256

// Availability reports whether the production sampler can be reached
type Availability interface {
	IsAvailable(ctx context.Context) bool
}

// Config wires a Server
type Config struct {
	Detector worker.Detector
	Sampler  consistency.Sampler // nil disables resampling
	Workers  int                 // Batch concurrency
	Logger   *slog.Logger
}

// Server serves the detection API
type Server struct {
	detector worker.Detector
	sampler  consistency.Sampler
	batch    *worker.BatchProcessor
	logger   *slog.Logger
	router   *gin.Engine
}

// New builds a Server and its routes
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	s := &Server{
		detector: cfg.Detector,
		sampler:  cfg.Sampler,
		batch:    worker.NewBatchProcessor(cfg.Detector, cfg.Sampler, workers),
		logger:   logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", HealthCheck)
	router.GET("/ready", s.ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/detect", s.detect)
	v1.POST("/detect/batch", s.detectBatch)

	s.router = router
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	status := gin.H{"status": "ok", "sampler": "disabled"}
	if s.sampler == nil {
		c.JSON(http.StatusOK, status)
		return
	}

	status["sampler"] = "configured"
	if a, ok := s.sampler.(Availability); ok {
		if !a.IsAvailable(c.Request.Context()) {
			status["status"] = "degraded"
			status["sampler"] = "unavailable"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["sampler"] = "available"
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) detect(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	req, err := model.DecodeDetectRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.detector.DetectRequest(c.Request.Context(), req, s.sampler)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type batchRequest struct {
	Requests []json.RawMessage `json:"requests"`
}

type batchItem struct {
	Index  int                    `json:"index"`
	Result *model.DetectionResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func (s *Server) detectBatch(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	var in batchRequest
	if err := json.Unmarshal(body, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.NewInvalidInputError("request", "malformed JSON").Error()})
		return
	}
	if len(in.Requests) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.NewInvalidInputError("requests", "too many requests").Error()})
		return
	}

	lines := make([]worker.RequestLine, len(in.Requests))
	for i, raw := range in.Requests {
		req, err := model.DecodeDetectRequest(raw)
		lines[i] = worker.RequestLine{Line: i + 1, Request: req, Err: err}
	}

	results := s.batch.ProcessLines(c.Request.Context(), lines)

	items := make([]batchItem, len(results))
	for i, r := range results {
		items[i] = batchItem{Index: i, Result: r.Result}
		if r.Error != nil {
			items[i].Error = r.Error.Error()
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (s *Server) writeError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("detection failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
