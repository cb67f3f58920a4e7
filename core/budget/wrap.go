package budget

import (
	"context"
	"fmt"

	"github.com/siherrmann/ragcore/core/llm"
	"github.com/siherrmann/ragcore/helper"
)

// Wrap decorates client with tracker's in-flight limiter and daily token
// counter: every call acquires an LLM_MAX_INFLIGHT slot for its duration
// and, once it returns, records its token usage against the daily cap.
// A call made after the daily cap is already exhausted is declined as
// UPSTREAM without reaching the backend. Wrap(client, nil) returns
// client unchanged.
func Wrap(client llm.Client, tracker *Tracker) llm.Client {
	if tracker == nil {
		return client
	}
	return &trackedClient{inner: client, tracker: tracker}
}

type trackedClient struct {
	inner   llm.Client
	tracker *Tracker
}

func (c *trackedClient) Chat(ctx context.Context, system, user string, opts llm.Options) (string, *llm.Usage, error) {
	if err := c.acquire(ctx); err != nil {
		return "", nil, err
	}
	defer c.tracker.Release()

	answer, usage, err := c.inner.Chat(ctx, system, user, opts)
	c.record(usage)
	return answer, usage, err
}

func (c *trackedClient) ChatStructured(ctx context.Context, system, user string, shape llm.ParseShape, opts llm.Options) (any, *llm.Usage, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer c.tracker.Release()

	result, usage, err := c.inner.ChatStructured(ctx, system, user, shape, opts)
	c.record(usage)
	return result, usage, err
}

func (c *trackedClient) Provider() string { return c.inner.Provider() }

func (c *trackedClient) acquire(ctx context.Context) error {
	if used, limit := c.tracker.Usage(); limit > 0 && used >= limit {
		return helper.NewKindError("llm call", helper.KindUpstream, fmt.Errorf("daily token budget exhausted (%d/%d)", used, limit))
	}
	if err := c.tracker.Acquire(ctx); err != nil {
		return helper.NewKindError("llm call", helper.KindTimeout, err)
	}
	return nil
}

func (c *trackedClient) record(usage *llm.Usage) {
	if usage == nil {
		return
	}
	c.tracker.Record(usage.PromptTokens + usage.CompletionTokens)
}
