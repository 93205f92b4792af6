package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dose-go/internal/config"
)

func TestGeminiClient_Generate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Take "},{"text":"with water."}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(config.AssistantConfig{
		Endpoint: srv.URL + "/",
		Model:    "gemini-1.5-flash",
		APIKey:   "k-123",
		Timeout:  config.Duration{Duration: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}

	got, err := c.Generate(context.Background(), "how?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Take with water." {
		t.Errorf("Generate() = %q", got)
	}
	if gotPath != "/v1beta/models/gemini-1.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "k-123" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotPrompt != "how?" {
		t.Errorf("prompt = %q", gotPrompt)
	}
}

func TestGeminiClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(config.AssistantConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	_, err = c.Generate(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Errorf("Generate() error = %v, want quota message", err)
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(config.AssistantConfig{Endpoint: "http://x", Model: "m"}); err == nil {
		t.Error("NewGeminiClient() without api key succeeded")
	}
}
