package retrieval

import (
	"context"

	"github.com/siherrmann/ragcore/database"
	"github.com/siherrmann/ragcore/model"
)

// Engine is the vector-search core of the answering pipeline (component
// C4). Chunk/embedding storage is owned by the ingestion collaborator;
// this engine only reads it.
type Engine struct {
	chunks *database.ChunksDBHandler
	edges  *database.EdgesDBHandler
}

func NewEngine(chunks *database.ChunksDBHandler, edges *database.EdgesDBHandler) *Engine {
	return &Engine{chunks: chunks, edges: edges}
}

// VectorRetrieve performs cosine-similarity nearest-neighbor search over
// chunk embeddings and returns results ordered by descending similarity,
// ties broken by ascending chunk id, per the orchestrator's ordering
// invariant.
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	chunks, err := e.chunks.SelectChunksBySimilarity(embedding, config.TopK, config.SimilarityThreshold, config.DocumentRIDs)
	if err != nil {
		return nil, err
	}

	results := make([]*model.RetrievalResult, len(chunks))
	for i, chunk := range chunks {
		results[i] = &model.RetrievalResult{
			Chunk:           chunk,
			Score:           chunk.Similarity,
			SimilarityScore: chunk.Similarity,
			RetrievalMethod: string(model.RetrievalMethodVector),
		}
	}

	return results, nil
}
