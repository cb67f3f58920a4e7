package model

import (
	"time"

	"github.com/google/uuid"
)

// Community is a cluster of related entities with a generated summary,
// produced by the external graph builder. The latest-view is the
// community set stamped with the most recent processing timestamp.
type Community struct {
	ID            int         `json:"id"`
	Summary       string      `json:"summary"`
	EntityIDs     []uuid.UUID `json:"entity_ids"`
	Relations     []string    `json:"relations,omitempty"`
	EntityCount   int         `json:"entity_count"`
	RelationCount int         `json:"relation_count"`
	ProcessedAt   time.Time   `json:"processed_at"`
}

// CommunityHit is a community returned by the graph enricher alongside
// its relevance to a retrieval result: the fraction of the enricher's
// candidate entities that belong to it.
type CommunityHit struct {
	Community *Community `json:"community"`
	Entities  []string   `json:"entities"`
	Relevance float64    `json:"relevance"`
}

// EntityHit is an entity returned by the graph enricher with its
// aggregated relevance (sum of incident edge weights from the queried
// chunks, truncated to the top candidates).
type EntityHit struct {
	Entity    *Entity `json:"entity"`
	Relevance float64 `json:"relevance"`
}
