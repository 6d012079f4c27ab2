package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider generates text from a prompt. Implementations wrap a single
// backend (local Ollama, AWS Bedrock).
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Ollama talks to an Ollama server through its generate endpoint.
type Ollama struct {
	endpoint string
	model    string
	http     *http.Client
}

// NewOllama returns a client bound to the given endpoint and model.
func NewOllama(endpoint, model string, timeout time.Duration) *Ollama {
	return &Ollama{
		endpoint: endpoint,
		model:    model,
		http:     &http.Client{Timeout: timeout},
	}
}

// generateRequest is the JSON body of POST /api/generate. Streaming is
// always disabled; the CLI wants the whole completion in one response.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Name identifies the provider in logs and errors.
func (c *Ollama) Name() string { return "ollama" }

// Generate sends the prompt and returns the completion with surrounding
// whitespace trimmed.
func (c *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}
