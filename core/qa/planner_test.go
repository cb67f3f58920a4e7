package qa

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldDecompose(t *testing.T) {
	assert.False(t, ShouldDecompose(500, 500))
	assert.False(t, ShouldDecompose(499, 500))
	assert.True(t, ShouldDecompose(501, 500))
}

func TestPlan(t *testing.T) {
	t.Run("parses and caps questions", func(t *testing.T) {
		client := &fakeClient{structuredResponses: []any{[]string{
			"What is A?", "What is B?", "What is C?", "What is D?", "What is E?",
		}}}
		questions := Plan(context.Background(), client, "main question", "context", 4)
		assert.Len(t, questions, 4)
	})

	t.Run("returns nil on failure", func(t *testing.T) {
		client := &fakeClient{structuredErr: fmt.Errorf("boom")}
		questions := Plan(context.Background(), client, "q", "ctx", 4)
		assert.Nil(t, questions)
	})

	t.Run("returns nil on wrong shape", func(t *testing.T) {
		client := &fakeClient{structuredResponses: []any{true}}
		questions := Plan(context.Background(), client, "q", "ctx", 4)
		assert.Nil(t, questions)
	})
}

func TestSubquestionPrompt(t *testing.T) {
	prompt := SubquestionPrompt("main question", "some context")
	assert.Contains(t, prompt, "main question")
	assert.Contains(t, prompt, "some context")
	assert.Contains(t, prompt, "SECURITY_INSTRUCTION")
}
