package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/veracity/internal/detect"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	d, err := detect.NewDetector(model.DefaultDetectorConfig(), nil)
	require.NoError(t, err)
	cfg.Detector = d
	return New(cfg)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthCheck_ReturnsOK(t *testing.T) {
	router := gin.New()
	router.GET("/health", HealthCheck)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

func TestDetect_Reliable(t *testing.T) {
	s := newTestServer(t, Config{})

	w := do(t, s, "POST", "/v1/detect",
		`{"response":"The Earth orbits the Sun.","context":{"astronomy":"The Earth orbits the Sun."}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result model.DetectionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.IsHallucination)
	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 1, result.Evidence.FactVerification.VerifiedCount)
}

func TestDetect_InvalidInput(t *testing.T) {
	s := newTestServer(t, Config{})

	for _, body := range []string{
		`{"response":42}`,
		`{"response":"x","context":["a"]}`,
		`{"response":`,
	} {
		w := do(t, s, "POST", "/v1/detect", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "invalid input", body)
	}
}

func TestDetectBatch(t *testing.T) {
	s := newTestServer(t, Config{Workers: 2})

	w := do(t, s, "POST", "/v1/detect/batch", `{"requests":[
		{"response":"The Earth orbits the Sun.","context":{"astronomy":"The Earth orbits the Sun."}},
		{"response":7},
		{"response":"Patient has no known allergies.","context":{"medical_record":"Patient is allergic to penicillin, not tolerant of it."}}
	]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Results []struct {
			Index  int                    `json:"index"`
			Result *model.DetectionResult `json:"result"`
			Error  string                 `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Results, 3)

	assert.Equal(t, 0, out.Results[0].Index)
	require.NotNil(t, out.Results[0].Result)
	assert.False(t, out.Results[0].Result.IsHallucination)

	assert.Nil(t, out.Results[1].Result)
	assert.Contains(t, out.Results[1].Error, "invalid input")

	require.NotNil(t, out.Results[2].Result)
	assert.Equal(t, 1, out.Results[2].Result.Evidence.FactVerification.ContradictedCount)
}

func TestDetectBatch_Malformed(t *testing.T) {
	s := newTestServer(t, Config{})

	w := do(t, s, "POST", "/v1/detect/batch", `{"requests":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubSampler struct {
	available bool
}

func (s stubSampler) Generate(ctx context.Context, input map[string]interface{}) (string, error) {
	return "sample", nil
}

func (s stubSampler) IsAvailable(ctx context.Context) bool {
	return s.available
}

func TestReady(t *testing.T) {
	t.Run("no sampler", func(t *testing.T) {
		w := do(t, newTestServer(t, Config{}), "GET", "/ready", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "disabled")
	})

	t.Run("sampler available", func(t *testing.T) {
		w := do(t, newTestServer(t, Config{Sampler: stubSampler{available: true}}), "GET", "/ready", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "available")
	})

	t.Run("sampler down", func(t *testing.T) {
		w := do(t, newTestServer(t, Config{Sampler: stubSampler{}}), "GET", "/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unavailable")
	})
}

func TestDetect_ResampleUsesSampler(t *testing.T) {
	s := newTestServer(t, Config{Sampler: stubSampler{available: true}})

	w := do(t, s, "POST", "/v1/detect", `{"response":"sample","context":{},"resample":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result model.DetectionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Evidence.Consistency)
	assert.Equal(t, 1.0, result.Evidence.Consistency.AgreementScore)
}

func TestMetrics(t *testing.T) {
	w := do(t, newTestServer(t, Config{}), "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
