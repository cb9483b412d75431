package advisor

import (
	"context"
	"fmt"
	"strings"
)

// New builds the advisor named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Advisor, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return NewOllamaAdvisor(cfg.Model, cfg.BaseURL), nil
	case "openrouter":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openrouter API key required (set advisor.api_key or TIDYCSV_ADVISOR_API_KEY)")
		}
		return NewOpenRouterAdvisor(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "gemini":
		return NewGeminiAdvisor(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown advisor provider: %s", cfg.Provider)
	}
}
