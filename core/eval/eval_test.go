package eval

import (
	"context"
	"strings"
	"testing"

	"github.com/siherrmann/ragcore/core/llm"
	"github.com/stretchr/testify/assert"
)

// fakeJudge scores each dimension deterministically by sniffing a
// keyword unique to that dimension's prompt, since Evaluate fires all
// four judge calls concurrently and a call-order-indexed fake would be
// racy.
type fakeJudge struct {
	err error
}

func (f *fakeJudge) Chat(ctx context.Context, system, user string, opts llm.Options) (string, *llm.Usage, error) {
	return "", nil, nil
}

func (f *fakeJudge) ChatStructured(ctx context.Context, system, user string, shape llm.ParseShape, opts llm.Options) (any, *llm.Usage, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	switch {
	case strings.Contains(user, "directly supported by the context"):
		return 0.9, nil, nil
	case strings.Contains(user, "judge relevance only"):
		return 0.7, nil, nil
	case strings.Contains(user, "signal-to-noise ratio"):
		return 0.3, nil, nil
	case strings.Contains(user, "relevant are the retrieved documents"):
		return 0.5, nil, nil
	default:
		return 0.0, nil, nil
	}
}

func (f *fakeJudge) Provider() string { return "fake" }

func TestEvaluateScoresAllFourDimensions(t *testing.T) {
	result := Evaluate(context.Background(), &fakeJudge{}, "what happened?", "the answer", []string{"doc one", "doc two"})

	assert.Equal(t, 0.9, result.Faithfulness)
	assert.Equal(t, 0.7, result.AnswerRelevancy)
	assert.Equal(t, 0.3, result.ContextPrecision)
	assert.Equal(t, 0.5, result.ContextRelevancy)
	assert.InDelta(t, (0.9+0.7+0.3+0.5)/4, result.Overall, 1e-9)
}

func TestEvaluateJudgeErrorScoresZeroNotAbort(t *testing.T) {
	result := Evaluate(context.Background(), &fakeJudge{err: assertError{}}, "q", "a", []string{"c"})
	assert.Equal(t, 0.0, result.Overall)
	assert.Equal(t, "Poor", result.QualityLevel)
}

type assertError struct{}

func (assertError) Error() string { return "judge unavailable" }

func TestInterpretQualityLevels(t *testing.T) {
	assert.Equal(t, "Excellent", qualityLevel(0.85))
	assert.Equal(t, "Good", qualityLevel(0.65))
	assert.Equal(t, "Fair", qualityLevel(0.45))
	assert.Equal(t, "Poor", qualityLevel(0.1))
}

func TestInterpretSurfacesRecommendationsForLowDimensions(t *testing.T) {
	interp := Interpret(Scores{
		Faithfulness:     0.9,
		AnswerRelevancy:  0.5,
		ContextPrecision: 0.9,
		ContextRelevancy: 0.9,
		Overall:          0.8,
	})
	assert.Contains(t, interp.Recommendations, "Improve answer relevance: focus on directly addressing the user's question")
	assert.Len(t, interp.Recommendations, 1)
	assert.Contains(t, interp.Strengths, "faithfulness: 0.90 (Excellent)")
	assert.Contains(t, interp.Weaknesses, "answer_relevancy: 0.50 (Fair)")
}
