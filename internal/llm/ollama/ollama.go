// Package ollama adapts the local Ollama generate API to llm.TextGenerator.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// Provider calls the Ollama /api/generate endpoint.
type Provider struct {
	client *resty.Client
	model  string
}

// New creates a Provider. It reads OLLAMA_URL; if empty it falls back to
// http://localhost:11434.
func New(model string, timeout time.Duration) *Provider {
	base := os.Getenv("OLLAMA_URL")
	if base == "" {
		base = "http://localhost:11434"
	}

	c := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Provider{client: c, model: model}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// GenerateText returns the completion text for prompt.
func (p *Provider) GenerateText(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}

	reqBody := generateRequest{Model: p.model, Prompt: prompt, Stream: false}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode(), resp.String())
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if gr.Error != "" {
		return "", fmt.Errorf("ollama error: %s", gr.Error)
	}
	return gr.Response, nil
}

// HealthPing checks /api/tags for the configured model's presence.
func (p *Provider) HealthPing(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return err
	}
	for _, m := range data.Models {
		if baseModelName(m.Name) == baseModelName(p.model) {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", p.model)
}

func baseModelName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[:i]
		}
	}
	return name
}
