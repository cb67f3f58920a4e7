package embedder

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/siherrmann/ragcore/helper"
)

type openAIEmbedder struct {
	client openai.Client
	model  string
}

func newOpenAIEmbedder(apiKey, baseURL, model string) *openAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, helper.NewKindError("embed request", helper.KindUpstream, err)
	}
	if len(resp.Data) == 0 {
		return nil, helper.NewKindError("embed request", helper.KindUpstream, fmt.Errorf("embedding response contained no vectors"))
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}
