package model

import (
	"time"

	"github.com/google/uuid"
)

// EdgeType represents the type of relationship between nodes in the graph.
type EdgeType string

const (
	EdgeTypeSemantic      EdgeType = "semantic"
	EdgeTypeHierarchical  EdgeType = "hierarchical"
	EdgeTypeReference     EdgeType = "reference"
	EdgeTypeEntityMention EdgeType = "entity_mention"
	EdgeTypeTemporal      EdgeType = "temporal"
	EdgeTypeCausal        EdgeType = "causal"
	EdgeTypeCustom        EdgeType = "custom"
)

// Edge represents a relationship between chunks and/or entities. Chunks are
// identified by their integer primary key; entities by their UUID.
type Edge struct {
	ID             uuid.UUID  `json:"id"`
	SourceChunkID  *int       `json:"source_chunk_id,omitempty"`
	TargetChunkID  *int       `json:"target_chunk_id,omitempty"`
	SourceEntityID *uuid.UUID `json:"source_entity_id,omitempty"`
	TargetEntityID *uuid.UUID `json:"target_entity_id,omitempty"`
	EdgeType       EdgeType   `json:"edge_type"`
	Relation       string     `json:"relation,omitempty"`
	Weight         float64    `json:"weight"`
	Bidirectional  bool       `json:"bidirectional"`
	Metadata       Metadata   `json:"metadata,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// EdgeConnection represents an edge together with the direction it was
// found in relative to the chunk or entity that was queried.
type EdgeConnection struct {
	Edge       *Edge `json:"edge"`
	IsOutgoing bool  `json:"is_outgoing"`
}

// TraversalNode represents a chunk reached during a graph traversal.
type TraversalNode struct {
	ChunkID int   `json:"chunk_id"`
	Depth   int   `json:"depth"`
	Path    []int `json:"path"`
}
