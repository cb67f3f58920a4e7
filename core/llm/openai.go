package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/siherrmann/ragcore/helper"
)

// openAICompatibleClient talks to any provider implementing OpenAI's
// /chat/completions contract: OpenAI itself, and self-hosted gateways
// (Ollama's OpenAI-compatible endpoint among them).
type openAICompatibleClient struct {
	client openai.Client
	model  string
}

func newOpenAICompatibleClient(apiKey, baseURL, model string) *openAICompatibleClient {
	return &openAICompatibleClient{
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)),
		model:  model,
	}
}

func (c *openAICompatibleClient) Provider() string { return "openai" }

func (c *openAICompatibleClient) Chat(ctx context.Context, system, user string, opts Options) (string, *Usage, error) {
	model := c.model
	if opts.Model != "" {
		model = opts.Model
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}

	var resp *openai.ChatCompletion
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err = c.client.Chat.Completions.New(ctx, params)
		if err == nil {
			break
		}
		if attempt == 0 && isRetryable(err) {
			time.Sleep(jitteredBackoff(attempt))
			continue
		}
		return "", nil, helper.NewKindError("openai chat", helper.KindUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil, helper.NewKindError("openai chat", helper.KindUpstream, fmt.Errorf("completion returned no choices"))
	}

	text := resp.Choices[0].Message.Content
	usage := &Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}
	return text, usage, nil
}

func (c *openAICompatibleClient) ChatStructured(ctx context.Context, system, user string, shape ParseShape, opts Options) (any, *Usage, error) {
	text, usage, err := c.Chat(ctx, system, user, opts)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := parseStructured(text, shape)
	if err != nil {
		return nil, usage, helper.NewKindError("openai chat structured", helper.KindUpstream, err)
	}
	return parsed, usage, nil
}
