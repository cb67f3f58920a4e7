// Package orchestrator implements the ten-step answer pipeline (C11):
// memory short-circuit, retrieval, optional smart selection, optional
// subquestion amplification, synthesis, verification, memory
// persistence, and graph enrichment.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/siherrmann/ragcore/core/embedder"
	"github.com/siherrmann/ragcore/core/graph"
	"github.com/siherrmann/ragcore/core/llm"
	"github.com/siherrmann/ragcore/core/memory"
	"github.com/siherrmann/ragcore/core/qa"
	"github.com/siherrmann/ragcore/core/retrieval"
	"github.com/siherrmann/ragcore/database"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"

	coreconfig "github.com/siherrmann/ragcore/config"
)

// Orchestrator wires every per-query-answering component (C1-C10, C17)
// into the single Answer operation. It holds no per-request state.
type Orchestrator struct {
	chunks    *database.ChunksDBHandler
	documents *database.DocumentsDBHandler
	engine    *retrieval.Engine
	enricher  *graph.Enricher
	cache     *memory.Cache
	embedder  embedder.Client
	llm       llm.Client
	cfg       coreconfig.PipelineConfig
	log       *slog.Logger
}

func NewOrchestrator(
	chunks *database.ChunksDBHandler,
	documents *database.DocumentsDBHandler,
	engine *retrieval.Engine,
	enricher *graph.Enricher,
	cache *memory.Cache,
	embedClient embedder.Client,
	llmClient llm.Client,
	cfg coreconfig.PipelineConfig,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		chunks:    chunks,
		documents: documents,
		engine:    engine,
		enricher:  enricher,
		cache:     cache,
		embedder:  embedClient,
		llm:       llmClient,
		cfg:       cfg,
		log:       log,
	}
}

// Answer runs the full ten-step pipeline for question under opts.
func (o *Orchestrator) Answer(ctx context.Context, question string, opts model.QueryOptions) (*model.QueryResponse, error) {
	started := time.Now()

	if question == "" {
		return nil, helper.NewKindError("answer", helper.KindBadInput, fmt.Errorf("query must not be empty"))
	}

	deadline := o.cfg.Deadline
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	topK := clamp(opts.MaxResults, 1, 50)

	embedding, err := o.embedder.Embed(ctx, question)
	if err != nil {
		return nil, asTimeout(ctx, err)
	}

	useMemory := opts.UseMemory && o.cfg.EnableMemory
	if useMemory {
		entry, err := o.cache.Lookup(question, embedding)
		if err != nil {
			o.log.Warn("memory lookup failed", "error", err)
		} else if entry != nil {
			if touched, err := o.cache.Touch(entry.ID); err == nil {
				entry = touched
			} else {
				o.log.Warn("memory touch failed", "error", err)
			}
			return o.fromMemory(entry, question, started), nil
		}
	}

	results, err := o.engine.VectorRetrieve(ctx, embedding, &model.QueryConfig{TopK: topK})
	if err != nil {
		return nil, asTimeout(ctx, err)
	}
	if len(results) == 0 {
		return o.noEvidenceResponse(question, started), nil
	}
	sortResultsBySimilarity(results)

	chunks := o.toQAChunks(results)

	selected := chunks
	if opts.UseSmartSelection && o.cfg.EnableChunkClassification {
		selected = o.selectRelevant(ctx, question, chunks)
	}
	selected = renumberChunks(selected)

	var subquestions []qa.SubquestionAnswer
	if opts.UseAmplification && o.cfg.EnableSubquestionAmplification {
		subquestions = o.amplify(ctx, question, selected)
	}

	synthesized, err := qa.Synthesize(ctx, o.llm, question, selected, subquestions)
	if err != nil {
		return nil, asTimeout(ctx, err)
	}

	var score *float64
	if opts.UseVerification && o.cfg.EnableAnswerVerification {
		verified, err := qa.Verify(ctx, o.llm, question, synthesized.Answer, qa.BuildContext(selected))
		if err != nil {
			o.log.Warn("answer verification failed", "error", err)
		} else {
			score = &verified
		}
	}

	chunkIDs := chunkIDsOf(results)
	entityHits, communityHits := o.enricher.Enrich(chunkIDs)

	var memoryID int
	if useMemory {
		inserted, err := o.cache.Insert(question, embedding, synthesized.Answer, synthesized.References, chunkIDs, entityModelsOf(entityHits), communityIDsOf(communityHits))
		if err != nil {
			o.log.Warn("memory insert failed", "error", err)
		} else {
			memoryID = inserted.ID
		}
	}

	return &model.QueryResponse{
		Query:             question,
		Answer:            synthesized.Answer,
		Chunks:            chunkHitsOf(results),
		Entities:          entityHits,
		Communities:       communityHits,
		References:        synthesized.References,
		Subquestions:      subquestionHitsOf(synthesized.Subquestions),
		VerificationScore: score,
		FromMemory:        false,
		MemoryID:          memoryID,
		ProcessingTimeMS:  time.Since(started).Milliseconds(),
	}, nil
}

// noEvidenceResponse is the fixed, deterministic boundary response for a
// question with no matching chunks: 200 with an empty evidence set and
// no verification score, never an LLM call.
func (o *Orchestrator) noEvidenceResponse(question string, started time.Time) *model.QueryResponse {
	return &model.QueryResponse{
		Query:             question,
		Answer:            qa.NoEvidenceAnswer,
		Chunks:            []*model.ChunkHit{},
		Entities:          []*model.EntityHit{},
		Communities:       []*model.CommunityHit{},
		References:        []string{},
		VerificationScore: nil,
		FromMemory:        false,
		ProcessingTimeMS:  time.Since(started).Milliseconds(),
	}
}

// renumberChunks reassigns contiguous 1..n citation indices after
// selection may have dropped a middle chunk, so citation markers in the
// synthesized answer never skip a number or exceed n.
func renumberChunks(chunks []qa.Chunk) []qa.Chunk {
	renumbered := make([]qa.Chunk, len(chunks))
	for i, c := range chunks {
		c.Index = i + 1
		renumbered[i] = c
	}
	return renumbered
}

// ClassifyChunks exposes C7 directly for POST /query/classify-chunks.
func (o *Orchestrator) ClassifyChunks(ctx context.Context, question string, ids []int) ([]bool, error) {
	relevant := make([]bool, len(ids))
	for i, id := range ids {
		chunk, err := o.chunks.SelectChunk(id)
		if err != nil {
			continue
		}
		relevant[i] = qa.ClassifyChunk(ctx, o.llm, question, qa.Chunk{Index: i + 1, Text: chunk.Content})
	}
	return relevant, nil
}

// GenerateSubquestions exposes C8 directly for POST /query/generate-subquestions.
func (o *Orchestrator) GenerateSubquestions(ctx context.Context, question, context string) []string {
	return qa.Plan(ctx, o.llm, question, context, o.cfg.MaxSubquestions)
}

// VerifyAnswer exposes C10 directly for POST /query/verify-answer.
func (o *Orchestrator) VerifyAnswer(ctx context.Context, question, answer, context string) (float64, error) {
	return qa.Verify(ctx, o.llm, question, answer, context)
}

func (o *Orchestrator) fromMemory(entry *model.MemoryEntry, question string, started time.Time) *model.QueryResponse {
	entities, communities := o.enricher.Enrich(entry.ChunkIDs)
	return &model.QueryResponse{
		Query:             question,
		Answer:            entry.Answer,
		Chunks:            o.refreshChunkHits(entry.ChunkIDs),
		Entities:          entities,
		Communities:       communities,
		References:        entry.References,
		VerificationScore: nil,
		FromMemory:        true,
		MemoryID:          entry.ID,
		ProcessingTimeMS:  time.Since(started).Milliseconds(),
	}
}

func (o *Orchestrator) refreshChunkHits(chunkIDs []int) []*model.ChunkHit {
	hits := make([]*model.ChunkHit, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		chunk, err := o.chunks.SelectChunk(id)
		if err != nil {
			continue
		}
		hits = append(hits, &model.ChunkHit{ID: chunk.ID, Text: chunk.Content, Source: o.reference(chunk)})
	}
	return hits
}

// selectRelevant runs C7 across chunks and falls back to the top
// MinKeepChunks by similarity if classification leaves too few.
func (o *Orchestrator) selectRelevant(ctx context.Context, question string, chunks []qa.Chunk) []qa.Chunk {
	classified := qa.ClassifyAll(ctx, o.llm, question, chunks, o.cfg.ClassifyConcurrency)

	minKeep := o.cfg.MinKeepChunks
	if minKeep <= 0 {
		minKeep = 2
	}
	if len(classified) >= minKeep {
		return classified
	}
	if minKeep > len(chunks) {
		minKeep = len(chunks)
	}
	return chunks[:minKeep]
}

// amplify runs C8's decomposition trigger and, if active, C9's
// sub-answer fan-out. Any planner/decomposition failure is absorbed:
// the caller proceeds with no subquestions.
func (o *Orchestrator) amplify(ctx context.Context, question string, selected []qa.Chunk) []qa.SubquestionAnswer {
	context := qa.BuildContext(selected)
	if !qa.ShouldDecompose(len(context), o.cfg.AmplificationMinContextLen) {
		return nil
	}

	questions := qa.Plan(ctx, o.llm, question, context, o.cfg.MaxSubquestions)
	if len(questions) == 0 {
		return nil
	}
	return qa.AnswerSubquestions(ctx, o.llm, questions, context, o.cfg.SubqConcurrency)
}

func (o *Orchestrator) toQAChunks(results []*model.RetrievalResult) []qa.Chunk {
	chunks := make([]qa.Chunk, len(results))
	for i, result := range results {
		chunks[i] = qa.Chunk{
			Index:     i + 1,
			Text:      result.Chunk.Content,
			Reference: o.reference(result.Chunk),
		}
	}
	return chunks
}

func (o *Orchestrator) reference(chunk *model.Chunk) string {
	doc, err := o.documents.SelectDocument(chunk.DocumentRID)
	if err != nil || doc.Title == "" {
		return fmt.Sprintf("chunk %d", chunk.ID)
	}
	return doc.Title
}

// sortResultsBySimilarity enforces the ordering invariant that citation
// numbering depends on: descending similarity, ties by ascending chunk id.
func sortResultsBySimilarity(results []*model.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].SimilarityScore != results[j].SimilarityScore {
			return results[i].SimilarityScore > results[j].SimilarityScore
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

func chunkIDsOf(results []*model.RetrievalResult) []int {
	ids := make([]int, len(results))
	for i, result := range results {
		ids[i] = result.Chunk.ID
	}
	return ids
}

func chunkHitsOf(results []*model.RetrievalResult) []*model.ChunkHit {
	hits := make([]*model.ChunkHit, len(results))
	for i, result := range results {
		hits[i] = &model.ChunkHit{
			ID:         result.Chunk.ID,
			Text:       result.Chunk.Content,
			Similarity: result.SimilarityScore,
		}
	}
	return hits
}

func subquestionHitsOf(answers []qa.SubquestionAnswer) []*model.SubQuestionAnswer {
	if len(answers) == 0 {
		return nil
	}
	hits := make([]*model.SubQuestionAnswer, len(answers))
	for i, a := range answers {
		hits[i] = &model.SubQuestionAnswer{Question: a.Question, Answer: a.Answer}
	}
	return hits
}

func entityModelsOf(hits []*model.EntityHit) []model.Entity {
	entities := make([]model.Entity, 0, len(hits))
	for _, hit := range hits {
		if hit.Entity != nil {
			entities = append(entities, *hit.Entity)
		}
	}
	return entities
}

func communityIDsOf(hits []*model.CommunityHit) []int {
	ids := make([]int, 0, len(hits))
	for _, hit := range hits {
		if hit.Community != nil {
			ids = append(ids, hit.Community.ID)
		}
	}
	return ids
}

func clamp(v, lo, hi int) int {
	if v <= 0 {
		v = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func asTimeout(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return helper.NewKindError("answer", helper.KindTimeout, err)
	}
	return err
}
