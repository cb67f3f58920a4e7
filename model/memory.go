package model

import (
	"time"

	"github.com/google/uuid"
)

// MemoryEntry is a persisted question/answer pair that short-circuits
// future identical or semantically near-identical questions.
type MemoryEntry struct {
	ID               int       `json:"id"`
	Question         string    `json:"question"`
	QuestionEmbedding []float32 `json:"question_embedding,omitempty"`
	Answer           string    `json:"answer"`
	References       []string  `json:"references,omitempty"`
	ChunkIDs         []int     `json:"chunk_ids,omitempty"`
	EntityIDs        []uuid.UUID `json:"entity_ids,omitempty"`
	CommunityIDs     []int     `json:"community_ids,omitempty"`
	AccessCount      int       `json:"access_count"`
	CreatedAt        time.Time `json:"created_at"`
	LastAccessed     time.Time `json:"last_accessed"`
}

// MemoryStats summarizes the memory cache for GET /memory/stats.
type MemoryStats struct {
	TotalEntries   int64     `json:"total_entries"`
	TotalAccesses  int64     `json:"total_accesses"`
	OldestEntry    time.Time `json:"oldest_entry,omitempty"`
	NewestEntry    time.Time `json:"newest_entry,omitempty"`
}
