// Package grapher wires the database handlers, retrieval engine, and
// query-answering collaborators into a single App, mirroring the
// construction order every cmd/* entrypoint follows.
package grapher

import (
	"fmt"
	"log/slog"

	"github.com/siherrmann/ragcore/config"
	"github.com/siherrmann/ragcore/core/budget"
	"github.com/siherrmann/ragcore/core/embedder"
	"github.com/siherrmann/ragcore/core/graph"
	"github.com/siherrmann/ragcore/core/llm"
	"github.com/siherrmann/ragcore/core/memory"
	"github.com/siherrmann/ragcore/core/orchestrator"
	"github.com/siherrmann/ragcore/core/pipeline"
	"github.com/siherrmann/ragcore/core/retrieval"
	"github.com/siherrmann/ragcore/core/thread"
	"github.com/siherrmann/ragcore/database"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
	loadSql "github.com/siherrmann/ragcore/sql"
)

// App provides a unified handle on every database handler plus the
// query-answering collaborators (C1-C17) built on top of them.
type App struct {
	DB *helper.Database

	Documents   *database.DocumentsDBHandler
	Chunks      *database.ChunksDBHandler
	Edges       *database.EdgesDBHandler
	Entities    *database.EntitiesDBHandler
	Communities *database.CommunitiesDBHandler
	Memory      *database.MemoryDBHandler
	Feedback    *database.FeedbackDBHandler
	Threads     *database.ThreadsDBHandler

	Engine       *retrieval.Engine
	Enricher     *graph.Enricher
	Cache        *memory.Cache
	Orchestrator *orchestrator.Orchestrator
	Threader     *thread.Manager

	Pipeline *pipeline.Pipeline // Optional ingestion pipeline

	log *slog.Logger
}

// NewApp builds every handler and collaborator in dependency order:
// documents and edges first (chunks references edges for BFS-by-edge
// filtering), then entities/communities/memory/feedback/threads, then
// the retrieval/enrichment/query layers on top. A nil logger falls back
// to a pretty, info-level default.
func NewApp(dbConfig *helper.DatabaseConfiguration, embeddingDim int, embedClient embedder.Client, llmClient llm.Client, cfg config.PipelineConfig, tracker *budget.Tracker, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = helper.NewLogger("pretty", "info")
	}

	db := helper.NewDatabase("grapher", dbConfig, logger)
	if err := loadSql.Init(db.Instance); err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}
	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}
	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}
	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}
	communities, err := database.NewCommunitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create communities handler", err)
	}
	memoryHandler, err := database.NewMemoryDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create memory handler", err)
	}
	feedback, err := database.NewFeedbackDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create feedback handler", err)
	}
	threads, err := database.NewThreadsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create threads handler", err)
	}

	engine := retrieval.NewEngine(chunks, edges)
	enricher := graph.NewEnricher(edges, entities, communities)
	cache := memory.NewCache(memoryHandler, cfg.MemorySimilarityThreshold)

	trackedLLM := budget.Wrap(llmClient, tracker)

	orch := orchestrator.NewOrchestrator(chunks, documents, engine, enricher, cache, embedClient, trackedLLM, cfg, logger)
	threader := thread.NewManager(feedback, threads, memoryHandler, documents, engine, embedClient, trackedLLM)

	return &App{
		DB:           db,
		Documents:    documents,
		Chunks:       chunks,
		Edges:        edges,
		Entities:     entities,
		Communities:  communities,
		Memory:       memoryHandler,
		Feedback:     feedback,
		Threads:      threads,
		Engine:       engine,
		Enricher:     enricher,
		Cache:        cache,
		Orchestrator: orch,
		Threader:     threader,
		log:          logger,
	}, nil
}

// Close closes the underlying database connection.
func (a *App) Close() error {
	if a.DB != nil && a.DB.Instance != nil {
		return a.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the chunking/embedding pipeline used for ingestion.
func (a *App) SetPipeline(p *pipeline.Pipeline) {
	a.Pipeline = p
}

// ProcessAndInsertDocument inserts the document's metadata, chunks its
// content through the configured ingestion pipeline, and inserts every
// resulting chunk. The document's Content field is consumed for
// chunking but never stored on the document row itself.
func (a *App) ProcessAndInsertDocument(doc *model.Document) (int, error) {
	if a.Pipeline == nil {
		return 0, helper.NewError("process document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	if doc.Content == "" {
		return 0, helper.NewError("process document", fmt.Errorf("document content is empty"))
	}

	content := doc.Content
	doc.Content = ""

	if err := a.Documents.InsertDocument(doc); err != nil {
		return 0, helper.NewError("insert document", err)
	}
	a.log.Info("inserted document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	chunks, err := a.Pipeline.Process(content, fmt.Sprintf("doc_%s", doc.RID.String()))
	if err != nil {
		return 0, helper.NewError("process chunks", err)
	}
	a.log.Info("processed document into chunks", slog.Int("num_chunks", len(chunks)), slog.String("document_id", doc.RID.String()))

	for i, chunk := range chunks {
		chunk.DocumentID = int(doc.ID)
		if err := a.Chunks.InsertChunk(chunk); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert chunk %d", i), err)
		}
	}
	return len(chunks), nil
}
