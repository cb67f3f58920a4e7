package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
	loadSql "github.com/siherrmann/ragcore/sql"
)

// MemoryDBHandlerFunctions defines the interface for memory-cache
// database operations.
type MemoryDBHandlerFunctions interface {
	InsertMemory(entry *model.MemoryEntry) error
	TouchMemory(id int) (*model.MemoryEntry, error)
	LookupMemoryExact(question string) (*model.MemoryEntry, error)
	LookupMemorySemantic(embedding []float32, threshold float64) (*model.MemoryEntry, error)
	SelectMemory(id int) (*model.MemoryEntry, error)
	DeleteMemory(id int) error
	ClearMemory() (int64, error)
	Stats() (*model.MemoryStats, error)
}

// MemoryDBHandler handles the persistent query-memory cache (C6). No
// teacher-pack precedent; follows the same NewXDBHandler(db, force) +
// CreateTable() + stored-procedure convention as the other handlers.
type MemoryDBHandler struct {
	db *helper.Database
}

func NewMemoryDBHandler(db *helper.Database, embeddingDim int, force bool) (*MemoryDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &MemoryDBHandler{db: db}

	if err := loadSql.LoadMemorySql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load memory sql", err)
	}
	if err := h.CreateTable(embeddingDim); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MemoryDBHandler")
	return h, nil
}

func (h *MemoryDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_memory($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing memory table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table memory")
	return nil
}

// InsertMemory persists a question/answer pair. Concurrent identical
// insert attempts are safe: the unique index on question makes the
// second writer's insert a no-op conflict rather than a duplicate row.
func (h *MemoryDBHandler) InsertMemory(entry *model.MemoryEntry) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM memory_insert($1, $2, $3, $4, $5, $6, $7)`,
		entry.Question,
		pgvector.NewVector(entry.QuestionEmbedding),
		entry.Answer,
		pq.Array(entry.References),
		pq.Array(entry.ChunkIDs),
		pq.Array(entry.EntityIDs),
		pq.Array(entry.CommunityIDs),
	)
	return scanMemory(row.Scan, entry)
}

// TouchMemory increments the access count and bumps last_accessed, used
// whenever a cached answer is served from memory instead of re-run.
func (h *MemoryDBHandler) TouchMemory(id int) (*model.MemoryEntry, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM memory_touch($1)`, id)
	entry := &model.MemoryEntry{}
	if err := scanMemory(row.Scan, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// LookupMemoryExact looks up a memory entry by exact question text.
func (h *MemoryDBHandler) LookupMemoryExact(question string) (*model.MemoryEntry, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM memory_lookup_exact($1)`, question)
	entry := &model.MemoryEntry{}
	if err := scanMemory(row.Scan, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// LookupMemorySemantic returns the highest-similarity memory entry with
// cosine similarity at or above threshold, ties broken by most recent.
func (h *MemoryDBHandler) LookupMemorySemantic(embedding []float32, threshold float64) (*model.MemoryEntry, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM memory_lookup_semantic($1, $2)`, pgvector.NewVector(embedding), threshold)
	entry := &model.MemoryEntry{}
	if err := scanMemory(row.Scan, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// SelectMemory retrieves a memory entry by id.
func (h *MemoryDBHandler) SelectMemory(id int) (*model.MemoryEntry, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_memory($1)`, id)
	entry := &model.MemoryEntry{}
	if err := scanMemory(row.Scan, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteMemory removes a memory entry by id. It returns a NOT_FOUND
// error if no row matched rather than silently succeeding.
func (h *MemoryDBHandler) DeleteMemory(id int) error {
	row := h.db.Instance.QueryRow(`SELECT * FROM delete_memory($1)`, id)
	var deleted bool
	if err := row.Scan(&deleted); err != nil {
		return helper.NewError("delete memory", err)
	}
	if !deleted {
		return helper.NewKindError("delete memory", helper.KindNotFound, fmt.Errorf("memory %d not found", id))
	}
	return nil
}

// ClearMemory deletes every memory entry and returns how many were removed.
func (h *MemoryDBHandler) ClearMemory() (int64, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM clear_memory()`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, helper.NewError("clear memory", err)
	}
	return count, nil
}

// Stats summarizes the cache's size and access volume.
func (h *MemoryDBHandler) Stats() (*model.MemoryStats, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM memory_stats()`)
	stats := &model.MemoryStats{}
	var oldest, newest sql.NullTime
	if err := row.Scan(&stats.TotalEntries, &stats.TotalAccesses, &oldest, &newest); err != nil {
		return nil, helper.NewError("memory stats", err)
	}
	if oldest.Valid {
		stats.OldestEntry = oldest.Time
	}
	if newest.Valid {
		stats.NewestEntry = newest.Time
	}
	return stats, nil
}

func scanMemory(scan func(dest ...interface{}) error, entry *model.MemoryEntry) error {
	err := scan(
		&entry.ID,
		&entry.Question,
		pq.Array(&entry.QuestionEmbedding),
		&entry.Answer,
		pq.Array(&entry.References),
		pq.Array(&entry.ChunkIDs),
		pq.Array(&entry.EntityIDs),
		pq.Array(&entry.CommunityIDs),
		&entry.AccessCount,
		&entry.CreatedAt,
		&entry.LastAccessed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return helper.NewKindError("scan", helper.KindNotFound, err)
		}
		return helper.NewError("scan", err)
	}
	return nil
}
