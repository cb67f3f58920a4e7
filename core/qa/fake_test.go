package qa

import (
	"context"
	"sync"

	"github.com/siherrmann/ragcore/core/llm"
)

// fakeClient is a deterministic llm.Client stand-in. Responses are
// served in call order per shape/plain-chat bucket; requesting more
// calls than configured responses returns the last one.
type fakeClient struct {
	mu sync.Mutex

	chatResponses       []string
	chatErr             error
	structuredResponses []any
	structuredErr       error

	chatCalls       int
	structuredCalls int
	lastUserPrompt  string
}

func (f *fakeClient) Chat(ctx context.Context, system, user string, opts llm.Options) (string, *llm.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUserPrompt = user
	if f.chatErr != nil {
		return "", nil, f.chatErr
	}
	if len(f.chatResponses) == 0 {
		return "", nil, nil
	}
	idx := f.chatCalls
	if idx >= len(f.chatResponses) {
		idx = len(f.chatResponses) - 1
	}
	f.chatCalls++
	return f.chatResponses[idx], &llm.Usage{PromptTokens: len(user), CompletionTokens: len(f.chatResponses[idx])}, nil
}

func (f *fakeClient) ChatStructured(ctx context.Context, system, user string, shape llm.ParseShape, opts llm.Options) (any, *llm.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUserPrompt = user
	if f.structuredErr != nil {
		return nil, nil, f.structuredErr
	}
	if len(f.structuredResponses) == 0 {
		return nil, nil, nil
	}
	idx := f.structuredCalls
	if idx >= len(f.structuredResponses) {
		idx = len(f.structuredResponses) - 1
	}
	f.structuredCalls++
	return f.structuredResponses[idx], &llm.Usage{}, nil
}

func (f *fakeClient) Provider() string { return "fake" }
