package qa

import (
	"context"
	"fmt"

	"github.com/siherrmann/ragcore/core/llm"
)

const verifierSystemPrompt = "You are a fact-checker verifying answers against source documents."

// VerificationPrompt mirrors make_verification_prompt.
func VerificationPrompt(question, answer, context string) string {
	return fmt.Sprintf(`Consider this question: "%s"

Context documents: "%s"

Proposed answer: "%s"

Based ONLY on the provided context documents, is the proposed answer:
1. Factually supported by the documents?
2. Complete within the scope of available information?
3. Free from unsupported claims or hallucinations?

Rate how well the answer is supported by the context with a number from 0 to 1:`, question, context, answer)
}

// Verify scores how well answer is grounded in context, in [0,1].
func Verify(ctx context.Context, client llm.Client, question, answer, context string) (float64, error) {
	result, _, err := client.ChatStructured(ctx, verifierSystemPrompt, VerificationPrompt(question, answer, context), llm.ShapeScore, llm.Options{MaxTokens: 10, Temperature: 0.1})
	if err != nil {
		return 0, err
	}
	score, ok := result.(float64)
	if !ok {
		return 0, nil
	}
	return score, nil
}
