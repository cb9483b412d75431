package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

// OllamaAdvisor asks a local Ollama model for advice through /api/generate
// in JSON mode.
type OllamaAdvisor struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func NewOllamaAdvisor(model, baseURL string) *OllamaAdvisor {
	if model == "" {
		model = defaultOllamaModel
	}
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &OllamaAdvisor{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (a *OllamaAdvisor) Name() string {
	return "ollama"
}

func (a *OllamaAdvisor) Advise(ctx context.Context, sample string, meta Meta) (string, error) {
	reqBody := ollamaRequest{
		Model:  a.model,
		System: systemPrompt,
		Prompt: buildPrompt(sample, meta),
		Stream: false,
		Format: "json",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/generate", a.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TransportError{Provider: a.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", &TransportError{Provider: a.Name(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if strings.TrimSpace(ollamaResp.Response) == "" {
		return "", &InputError{Err: ErrEmptyContent}
	}
	return ollamaResp.Response, nil
}
