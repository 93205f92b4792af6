package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"dose-go/internal/config"
)

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	client *resty.Client
	model  string
}

var _ Client = (*GeminiClient)(nil)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func NewGeminiClient(cfg config.AssistantConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("assistant requires api_key to be set")
	}
	if cfg.Endpoint == "" || cfg.Model == "" {
		return nil, fmt.Errorf("assistant requires endpoint and model to be set")
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", cfg.APIKey)
	if cfg.Timeout.Duration > 0 {
		c.SetTimeout(cfg.Timeout.Duration)
	}
	return &GeminiClient{client: c, model: cfg.Model}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var out generateResponse
	var apiErr geminiError
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("model", g.model).
		SetBody(&generateRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini status %d", resp.StatusCode())
	}

	var b strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String(), nil
}
