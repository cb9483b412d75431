// Package advisor talks to the external language model that proposes
// structural fixes for a CSV sample, and decodes its free-form reply.
//
// Clients only move text: Advise sends a sample and returns whatever the
// model said. Decode is the single place where that text is turned into a
// typed Advice, and it never panics on malformed replies.
package advisor

import (
	"context"
	"time"
)

// Config selects and configures one advisor backend.
type Config struct {
	Provider string        `mapstructure:"provider" json:"provider"`
	APIKey   string        `mapstructure:"api_key" json:"api_key"`
	Model    string        `mapstructure:"model" json:"model"`
	BaseURL  string        `mapstructure:"base_url" json:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
}

// Meta describes how the sample is laid out.
type Meta struct {
	Delimiter string
	HasHeader bool
}

// Advice is the decoded advisor reply. Actions are left untyped; they are
// turned into a trusted plan by action.Normalize.
type Advice struct {
	Explanation string   `json:"explanation"`
	Issues      []string `json:"issues"`
	Actions     []any    `json:"actions"`
}

// Advisor returns the raw reply of a model asked to review a CSV sample.
type Advisor interface {
	Name() string
	Advise(ctx context.Context, sample string, meta Meta) (string, error)
}
