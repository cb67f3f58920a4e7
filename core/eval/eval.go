// Package eval implements the answer-quality evaluator (C13): four
// LLM-judge dimensions scored concurrently against a (question, answer,
// contexts) triple, with an interpretation pass that turns the raw
// scores into a quality tier plus strengths/weaknesses/recommendations.
// It is advisory and never sits on the /query hot path.
package eval

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/ragcore/core/llm"
	"golang.org/x/sync/errgroup"
)

const judgeSystemPrompt = "You are a strict evaluator scoring a generated answer against the context it was produced from."

// Scores holds the four dimension scores plus their mean. Each
// dimension is in [0,1]; Overall is the average of all four, with a
// dimension whose judge call failed counted as 0.
type Scores struct {
	Faithfulness      float64 `json:"faithfulness"`
	AnswerRelevancy   float64 `json:"answer_relevancy"`
	ContextPrecision  float64 `json:"context_precision"`
	ContextRelevancy  float64 `json:"context_relevancy"`
	Overall           float64 `json:"overall_score"`
}

// Interpretation is the human-facing readout derived from Scores,
// mirroring interpret_scores/_get_quality_level.
type Interpretation struct {
	QualityLevel    string   `json:"quality_level"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// Result bundles Scores and Interpretation, the full /evaluate response body.
type Result struct {
	Scores
	Interpretation
}

func faithfulnessPrompt(answer string, contexts []string) string {
	return fmt.Sprintf(`Context documents:
%s

Proposed answer: %q

On a scale from 0 to 1, how well is every claim in the answer directly supported by the context documents? Answer with only a number from 0 to 1.`, strings.Join(contexts, "\n\n"), answer)
}

func answerRelevancyPrompt(question, answer string) string {
	return fmt.Sprintf(`Question: %q

Proposed answer: %q

On a scale from 0 to 1, how directly and completely does the answer address the question (ignore factual grounding, judge relevance only)? Answer with only a number from 0 to 1.`, question, answer)
}

func contextPrecisionPrompt(question string, contexts []string) string {
	return fmt.Sprintf(`Question: %q

Retrieved context documents:
%s

On a scale from 0 to 1, what fraction of the retrieved documents are actually useful for answering the question (signal-to-noise ratio)? Answer with only a number from 0 to 1.`, question, strings.Join(contexts, "\n\n"))
}

func contextRelevancyPrompt(question string, contexts []string) string {
	return fmt.Sprintf(`Question: %q

Retrieved context documents:
%s

On a scale from 0 to 1, how relevant are the retrieved documents to the question overall? Answer with only a number from 0 to 1.`, question, strings.Join(contexts, "\n\n"))
}

// Evaluate scores a single (question, answer, contexts) triple across
// all four dimensions concurrently. Each judge call that fails scores
// 0 for its dimension rather than aborting the evaluation.
func Evaluate(ctx context.Context, client llm.Client, question, answer string, contexts []string) Result {
	var faithfulness, answerRelevancy, contextPrecision, contextRelevancy float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		faithfulness = judge(gctx, client, faithfulnessPrompt(answer, contexts))
		return nil
	})
	g.Go(func() error {
		answerRelevancy = judge(gctx, client, answerRelevancyPrompt(question, answer))
		return nil
	})
	g.Go(func() error {
		contextPrecision = judge(gctx, client, contextPrecisionPrompt(question, contexts))
		return nil
	})
	g.Go(func() error {
		contextRelevancy = judge(gctx, client, contextRelevancyPrompt(question, contexts))
		return nil
	})
	_ = g.Wait() // every goroutine above absorbs its own error into a 0 score

	scores := Scores{
		Faithfulness:     faithfulness,
		AnswerRelevancy:  answerRelevancy,
		ContextPrecision: contextPrecision,
		ContextRelevancy: contextRelevancy,
	}
	scores.Overall = (faithfulness + answerRelevancy + contextPrecision + contextRelevancy) / 4

	return Result{Scores: scores, Interpretation: Interpret(scores)}
}

func judge(ctx context.Context, client llm.Client, prompt string) float64 {
	result, _, err := client.ChatStructured(ctx, judgeSystemPrompt, prompt, llm.ShapeScore, llm.Options{MaxTokens: 10, Temperature: 0.1})
	if err != nil {
		return 0
	}
	score, ok := result.(float64)
	if !ok {
		return 0
	}
	return score
}

// Interpret turns raw scores into a quality tier and per-dimension
// strengths/weaknesses/recommendations, mirroring interpret_scores.
func Interpret(scores Scores) Interpretation {
	interp := Interpretation{QualityLevel: qualityLevel(scores.Overall)}

	dims := []struct {
		name  string
		value float64
	}{
		{"faithfulness", scores.Faithfulness},
		{"answer_relevancy", scores.AnswerRelevancy},
		{"context_precision", scores.ContextPrecision},
		{"context_relevancy", scores.ContextRelevancy},
	}
	for _, d := range dims {
		switch {
		case d.value >= 0.8:
			interp.Strengths = append(interp.Strengths, fmt.Sprintf("%s: %.2f (Excellent)", d.name, d.value))
		case d.value >= 0.6:
			interp.Strengths = append(interp.Strengths, fmt.Sprintf("%s: %.2f (Good)", d.name, d.value))
		case d.value >= 0.4:
			interp.Weaknesses = append(interp.Weaknesses, fmt.Sprintf("%s: %.2f (Fair)", d.name, d.value))
		default:
			interp.Weaknesses = append(interp.Weaknesses, fmt.Sprintf("%s: %.2f (Poor)", d.name, d.value))
		}
	}

	if scores.Faithfulness < 0.6 {
		interp.Recommendations = append(interp.Recommendations, "Improve answer grounding: ensure answers strictly use information from retrieved contexts")
	}
	if scores.AnswerRelevancy < 0.6 {
		interp.Recommendations = append(interp.Recommendations, "Improve answer relevance: focus on directly addressing the user's question")
	}
	if scores.ContextPrecision < 0.6 {
		interp.Recommendations = append(interp.Recommendations, "Improve retrieval precision: too many irrelevant chunks are being retrieved")
	}
	if scores.ContextRelevancy < 0.6 {
		interp.Recommendations = append(interp.Recommendations, "Improve retrieval relevance: retrieved contexts don't match the query well")
	}

	return interp
}

func qualityLevel(overall float64) string {
	switch {
	case overall >= 0.8:
		return "Excellent"
	case overall >= 0.6:
		return "Good"
	case overall >= 0.4:
		return "Fair"
	default:
		return "Poor"
	}
}
