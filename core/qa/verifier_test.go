package qa

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	t.Run("returns score", func(t *testing.T) {
		client := &fakeClient{structuredResponses: []any{0.85}}
		score, err := Verify(context.Background(), client, "q", "answer", "context")
		require.NoError(t, err)
		assert.Equal(t, 0.85, score)
	})

	t.Run("propagates error", func(t *testing.T) {
		client := &fakeClient{structuredErr: fmt.Errorf("down")}
		_, err := Verify(context.Background(), client, "q", "answer", "context")
		assert.Error(t, err)
	})

	t.Run("zero on wrong shape", func(t *testing.T) {
		client := &fakeClient{structuredResponses: []any{true}}
		score, err := Verify(context.Background(), client, "q", "answer", "context")
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})
}
