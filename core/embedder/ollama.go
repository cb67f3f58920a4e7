package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/siherrmann/ragcore/helper"
)

// ollamaEmbedder talks HTTP to an Ollama-style /api/embeddings endpoint.
type ollamaEmbedder struct {
	baseURL string
	model   string
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func newOllamaEmbedder(baseURL, model string) *ollamaEmbedder {
	return &ollamaEmbedder{baseURL: baseURL, model: model}
}

func (e *ollamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, helper.NewError("marshal embed request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, helper.NewError("build embed request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, helper.NewKindError("embed request", helper.KindUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helper.NewError("read embed response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, helper.NewKindError("embed request", helper.KindUpstream, errStatus(resp.StatusCode, respBody))
	}

	var parsed ollamaEmbedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, helper.NewError("unmarshal embed response", err)
	}
	return parsed.Embedding, nil
}
