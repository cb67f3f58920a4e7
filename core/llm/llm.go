// Package llm provides a provider-agnostic chat-completion client used
// by the classifier, planner, synthesizer, and verifier stages.
package llm

import (
	"context"
	"fmt"

	"github.com/siherrmann/ragcore/helper"
)

// ParseShape names the lenient-parsing contract ChatStructured applies
// to a raw completion.
type ParseShape string

const (
	ShapeYesNo     ParseShape = "yes_no"
	ShapeScore     ParseShape = "score"
	ShapeQuestions ParseShape = "questions"
)

// Options bounds a single completion call. Zero values take the
// backend's defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Usage reports token accounting for a single call, used by the budget
// tracker.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Client is the interface the pipeline stages depend on. Both concrete
// backends retry once with jittered exponential backoff when the error
// looks transient (overload, 502/503, rate limit); any other error is
// surfaced as UPSTREAM without a retry.
type Client interface {
	Chat(ctx context.Context, system, user string, opts Options) (string, *Usage, error)
	ChatStructured(ctx context.Context, system, user string, shape ParseShape, opts Options) (any, *Usage, error)
	Provider() string
}

// Config selects and parameterizes a backend.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return newAnthropicClient(cfg.APIKey, cfg.Model), nil
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return newOpenAICompatibleClient(cfg.APIKey, baseURL, model), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "qwen2:0.5b"
		}
		return newOpenAICompatibleClient("ollama", baseURL+"/v1", model), nil
	default:
		return nil, helper.NewKindError("llm client", helper.KindBadInput, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
}
