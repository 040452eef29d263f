package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "localhost,.corp.example")

	req, _ := http.NewRequest(http.MethodGet, "https://api.openai.com/v1/chat/completions", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if u == nil || u.Host != "proxy.internal:3128" {
		t.Errorf("Expected https request to use http proxy fallback, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodPost, "http://ollama.corp.example:11434/api/generate", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if u != nil {
		t.Errorf("Expected NO_PROXY host to bypass proxy, got %v", u)
	}
}

func TestNewProxyFunc_HTTPSProxy(t *testing.T) {
	proxy := NewProxyFunc("http://plain:3128", "http://secure:3129", "")

	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	u, _ := proxy(req)
	if u == nil || u.Host != "secure:3129" {
		t.Errorf("Expected https proxy, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://example.com", nil)
	u, _ = proxy(req)
	if u == nil || u.Host != "plain:3128" {
		t.Errorf("Expected http proxy, got %v", u)
	}
}
