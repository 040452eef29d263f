package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DetectRequest is the serialized form of a detection call used by the
// batch runner and the HTTP server
type DetectRequest struct {
	Response string                 `json:"response"`
	Context  map[string]interface{} `json:"context"`
	Resample bool                   `json:"resample,omitempty"` // Drive the configured sampler
}

// DecodeDetectRequest parses a JSON request. A non-string response or a
// non-object context is rejected with an InvalidInputError rather than
// coerced.
func DecodeDetectRequest(data []byte) (DetectRequest, error) {
	var raw struct {
		Response json.RawMessage `json:"response"`
		Context  json.RawMessage `json:"context"`
		Resample bool            `json:"resample"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return DetectRequest{}, NewInvalidInputError("request", fmt.Sprintf("malformed JSON: %v", err))
	}

	req := DetectRequest{Resample: raw.Resample}

	if len(raw.Response) > 0 && !isJSONNull(raw.Response) {
		if err := json.Unmarshal(raw.Response, &req.Response); err != nil {
			return DetectRequest{}, NewInvalidInputError("response", "must be a string")
		}
	}

	if len(raw.Context) > 0 && !isJSONNull(raw.Context) {
		if err := json.Unmarshal(raw.Context, &req.Context); err != nil {
			return DetectRequest{}, NewInvalidInputError("context", "must be an object")
		}
	}

	if req.Context == nil {
		req.Context = map[string]interface{}{}
	}

	return req, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
