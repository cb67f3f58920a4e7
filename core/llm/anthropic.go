package llm

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/siherrmann/ragcore/helper"
)

type anthropicClient struct {
	client anthropic.Client
	model  string
}

func newAnthropicClient(apiKey, model string) *anthropicClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &anthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *anthropicClient) Provider() string { return "anthropic" }

func (c *anthropicClient) Chat(ctx context.Context, system, user string, opts Options) (string, *Usage, error) {
	params := c.buildParams(system, user, opts)

	var resp *anthropic.Message
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err = c.client.Messages.New(ctx, params)
		if err == nil {
			break
		}
		if attempt == 0 && isRetryable(err) {
			time.Sleep(jitteredBackoff(attempt))
			continue
		}
		return "", nil, helper.NewKindError("anthropic chat", helper.KindUpstream, err)
	}

	text := extractText(resp)
	usage := &Usage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}
	return text, usage, nil
}

func (c *anthropicClient) ChatStructured(ctx context.Context, system, user string, shape ParseShape, opts Options) (any, *Usage, error) {
	text, usage, err := c.Chat(ctx, system, user, opts)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := parseStructured(text, shape)
	if err != nil {
		return nil, usage, helper.NewKindError("anthropic chat structured", helper.KindUpstream, fmt.Errorf("LLM_PARSE: %w", err))
	}
	return parsed, usage, nil
}

func (c *anthropicClient) buildParams(system, user string, opts Options) anthropic.MessageNewParams {
	model := c.model
	if opts.Model != "" {
		model = opts.Model
	}
	maxTokens := int64(1024)
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(opts.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func extractText(resp *anthropic.Message) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func isRetryable(err error) bool {
	s := err.Error()
	return strings.Contains(s, "529") || strings.Contains(s, "overloaded") ||
		strings.Contains(s, "503") || strings.Contains(s, "502") || strings.Contains(s, "rate_limit")
}

func jitteredBackoff(attempt int) time.Duration {
	base := 500 * time.Millisecond * time.Duration(1<<attempt)
	jitter := time.Duration(rand.Int63n(int64(base)))
	return base + jitter
}
