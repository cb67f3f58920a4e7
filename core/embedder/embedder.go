// Package embedder provides a provider-agnostic text-embedding client.
package embedder

import (
	"context"
	"fmt"

	"github.com/siherrmann/ragcore/helper"
)

// Client is the interface the pipeline depends on, mirroring the
// teacher ecosystem's single-method embedder contract.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
}

func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return newOllamaEmbedder(baseURL, model), nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return newOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, model), nil
	default:
		return nil, helper.NewKindError("embedder client", helper.KindBadInput, fmt.Errorf("unknown embedder provider: %s", cfg.Provider))
	}
}
