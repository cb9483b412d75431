package advisor

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiAdvisor uses the Google Gen AI SDK with a JSON response type.
type GeminiAdvisor struct {
	client *genai.Client
	model  string
}

// NewGeminiAdvisor creates the SDK client. baseURL overrides the API
// endpoint and is mostly useful in tests.
func NewGeminiAdvisor(ctx context.Context, apiKey, baseURL, model string) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiAdvisor{client: client, model: model}, nil
}

func (a *GeminiAdvisor) Name() string {
	return "gemini"
}

func (a *GeminiAdvisor) Advise(ctx context.Context, sample string, meta Meta) (string, error) {
	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(buildPrompt(sample, meta)), config)
	if err != nil {
		return "", &TransportError{Provider: a.Name(), Err: err}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &InputError{Err: ErrEmptyContent}
	}
	return text, nil
}
