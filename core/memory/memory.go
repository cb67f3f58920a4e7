// Package memory implements the persistent query-memory cache (C6):
// exact- and semantic-match lookup before a pipeline run, and
// concurrency-safe insert after one.
package memory

import (
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/ragcore/database"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
)

// Cache wraps the memory database handler with the normalization and
// dedup policy from the query-memory contract.
type Cache struct {
	db                  *database.MemoryDBHandler
	similarityThreshold float64
}

func NewCache(db *database.MemoryDBHandler, similarityThreshold float64) *Cache {
	return &Cache{db: db, similarityThreshold: similarityThreshold}
}

// Normalize trims, collapses internal whitespace, and case-folds a
// question so that exact-match lookups are insensitive to formatting.
func Normalize(question string) string {
	return strings.ToLower(strings.Join(strings.Fields(question), " "))
}

// Lookup tries an exact match on the normalized question, then falls
// back to the highest-similarity entry at or above the configured
// threshold. Returns nil, nil on a clean miss.
func (c *Cache) Lookup(question string, embedding []float32) (*model.MemoryEntry, error) {
	normalized := Normalize(question)

	entry, err := c.db.LookupMemoryExact(normalized)
	if err == nil {
		return entry, nil
	}
	if helper.KindOf(err) != helper.KindNotFound {
		return nil, err
	}

	entry, err = c.db.LookupMemorySemantic(embedding, c.similarityThreshold)
	if err == nil {
		return entry, nil
	}
	if helper.KindOf(err) != helper.KindNotFound {
		return nil, err
	}
	return nil, nil
}

// Touch records a cache hit: bumps access_count and last_accessed.
func (c *Cache) Touch(id int) (*model.MemoryEntry, error) {
	return c.db.TouchMemory(id)
}

// Insert persists a new entry after a successful pipeline run. The
// underlying stored procedure is an ON CONFLICT no-op touch, so two
// concurrent misses for the same normalized question never produce two
// rows: the second writer gets the first's row back, with its access
// count unchanged, instead of a duplicate.
func (c *Cache) Insert(question string, embedding []float32, answer string, references []string, chunkIDs []int, entityIDs []model.Entity, communityIDs []int) (*model.MemoryEntry, error) {
	entry := &model.MemoryEntry{
		Question:          Normalize(question),
		QuestionEmbedding: embedding,
		Answer:            answer,
		References:        references,
		ChunkIDs:          chunkIDs,
		CommunityIDs:      communityIDs,
	}
	entry.EntityIDs = make([]uuid.UUID, len(entityIDs))
	for i, e := range entityIDs {
		entry.EntityIDs[i] = e.ID
	}
	if err := c.db.InsertMemory(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (c *Cache) Select(id int) (*model.MemoryEntry, error) {
	return c.db.SelectMemory(id)
}
