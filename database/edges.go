package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
	loadSql "github.com/siherrmann/ragcore/sql"
)

// EdgesDBHandlerFunctions defines the interface for Edges database operations.
type EdgesDBHandlerFunctions interface {
	InsertEdge(edge *model.Edge) error
	SelectEdge(id uuid.UUID) (*model.Edge, error)
	SelectEdgesFromChunk(chunkID int, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectEdgesToChunk(chunkID int, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectEdgesConnectedToChunk(chunkID int, edgeType *model.EdgeType) ([]*model.EdgeConnection, error)
	SelectEdgesFromEntity(entityID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectEdgesToEntity(entityID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error)
	DeleteEdge(id uuid.UUID) error
	UpdateEdgeWeight(id uuid.UUID, weight float64) error
	TraverseBFSFromChunk(startChunkID int, maxDepth int, edgeType *model.EdgeType) ([]*model.TraversalNode, error)
}

// EdgesDBHandler handles edge-related database operations. Edges are the
// backbone of the graph enricher (C5): entity_mention edges link a chunk to
// the entities it mentions. Edges carry no processing timestamp and are
// not filtered by one.
type EdgesDBHandler struct {
	db *helper.Database
}

func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &EdgesDBHandler{db: db}

	if err := loadSql.LoadEdgesSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load edges sql", err)
	}
	if err := h.CreateTable(); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")
	return h, nil
}

func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		log.Panicf("error initializing edges table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table edges")
	return nil
}

func (h *EdgesDBHandler) InsertEdge(edge *model.Edge) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_edge($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		edge.SourceChunkID,
		edge.TargetChunkID,
		edge.SourceEntityID,
		edge.TargetEntityID,
		edge.EdgeType,
		edge.Relation,
		edge.Weight,
		edge.Bidirectional,
		edge.Metadata,
	)

	return scanEdge(row, edge)
}

func scanEdge(row *sql.Row, edge *model.Edge) error {
	err := row.Scan(
		&edge.ID,
		&edge.SourceChunkID,
		&edge.TargetChunkID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.EdgeType,
		&edge.Relation,
		&edge.Weight,
		&edge.Bidirectional,
		&edge.Metadata,
		&edge.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}

func scanEdgeRows(rows *sql.Rows) (*model.Edge, error) {
	edge := &model.Edge{}
	err := rows.Scan(
		&edge.ID,
		&edge.SourceChunkID,
		&edge.TargetChunkID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.EdgeType,
		&edge.Relation,
		&edge.Weight,
		&edge.Bidirectional,
		&edge.Metadata,
		&edge.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return edge, nil
}

func (h *EdgesDBHandler) SelectEdge(id uuid.UUID) (*model.Edge, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_edge($1)`, id)
	edge := &model.Edge{}
	if err := scanEdge(row, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

func (h *EdgesDBHandler) SelectEdgesFromChunk(chunkID int, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.queryWithOptionalType(`select_edges_from_chunk`, chunkID, edgeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*model.Edge
	for rows.Next() {
		edge, err := scanEdgeRows(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rowsErr(rows)
}

func (h *EdgesDBHandler) SelectEdgesToChunk(chunkID int, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.queryWithOptionalType(`select_edges_to_chunk`, chunkID, edgeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*model.Edge
	for rows.Next() {
		edge, err := scanEdgeRows(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rowsErr(rows)
}

// SelectEdgesConnectedToChunk retrieves all entity_mention/semantic edges
// touching a chunk, in either direction, used by the graph enricher to
// collect candidate entities for a set of retrieved chunks.
func (h *EdgesDBHandler) SelectEdgesConnectedToChunk(chunkID int, edgeType *model.EdgeType) ([]*model.EdgeConnection, error) {
	var rows *sql.Rows
	var err error

	if edgeType != nil {
		rows, err = h.db.Instance.Query(`SELECT * FROM select_edges_connected_to_chunk($1, $2)`, chunkID, *edgeType)
	} else {
		rows, err = h.db.Instance.Query(`SELECT * FROM select_edges_connected_to_chunk($1, NULL)`, chunkID)
	}
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var connections []*model.EdgeConnection
	for rows.Next() {
		edge := &model.Edge{}
		var isOutgoing bool
		err := rows.Scan(
			&edge.ID, &edge.SourceChunkID, &edge.TargetChunkID, &edge.SourceEntityID, &edge.TargetEntityID,
			&edge.EdgeType, &edge.Relation, &edge.Weight, &edge.Bidirectional, &edge.Metadata, &edge.CreatedAt,
			&isOutgoing,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		connections = append(connections, &model.EdgeConnection{Edge: edge, IsOutgoing: isOutgoing})
	}
	return connections, rowsErr(rows)
}

func (h *EdgesDBHandler) SelectEdgesFromEntity(entityID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.queryWithOptionalType(`select_edges_from_entity`, entityID, edgeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*model.Edge
	for rows.Next() {
		edge, err := scanEdgeRows(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rowsErr(rows)
}

func (h *EdgesDBHandler) SelectEdgesToEntity(entityID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.queryWithOptionalType(`select_edges_to_entity`, entityID, edgeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*model.Edge
	for rows.Next() {
		edge, err := scanEdgeRows(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rowsErr(rows)
}

func (h *EdgesDBHandler) DeleteEdge(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(`SELECT delete_edge($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *EdgesDBHandler) UpdateEdgeWeight(id uuid.UUID, weight float64) error {
	_, err := h.db.Instance.Exec(`SELECT * FROM update_edge_weight($1, $2)`, id, weight)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// TraverseBFSFromChunk performs a breadth-first search over chunk-to-chunk
// edges from a starting chunk.
func (h *EdgesDBHandler) TraverseBFSFromChunk(startChunkID int, maxDepth int, edgeType *model.EdgeType) ([]*model.TraversalNode, error) {
	var rows *sql.Rows
	var err error

	if edgeType != nil {
		rows, err = h.db.Instance.Query(`SELECT * FROM traverse_bfs_from_chunk($1, $2, $3)`, startChunkID, maxDepth, *edgeType)
	} else {
		rows, err = h.db.Instance.Query(`SELECT * FROM traverse_bfs_from_chunk($1, $2, NULL)`, startChunkID, maxDepth)
	}
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var nodes []*model.TraversalNode
	for rows.Next() {
		node := &model.TraversalNode{}
		var pathArray []byte
		if err := rows.Scan(&node.ChunkID, &node.Depth, &pathArray); err != nil {
			return nil, helper.NewError("scan", err)
		}
		if err := parseIntArray(pathArray, &node.Path); err != nil {
			return nil, helper.NewError("parsing path array", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, rowsErr(rows)
}

func (h *EdgesDBHandler) queryWithOptionalType(fn string, id interface{}, edgeType *model.EdgeType) (*sql.Rows, error) {
	var rows *sql.Rows
	var err error
	if edgeType != nil {
		rows, err = h.db.Instance.Query(fmt.Sprintf(`SELECT * FROM %s($1, $2)`, fn), id, *edgeType)
	} else {
		rows, err = h.db.Instance.Query(fmt.Sprintf(`SELECT * FROM %s($1, NULL)`, fn), id)
	}
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return rows, nil
}

func rowsErr(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		return helper.NewError("rows error", err)
	}
	return nil
}

// parseIntArray parses a PostgreSQL bigint array literal, e.g. {1,2,3}.
func parseIntArray(data []byte, result *[]int) error {
	str := strings.TrimSpace(string(data))
	if len(str) < 2 || str[0] != '{' || str[len(str)-1] != '}' {
		return helper.NewError("invalid array format", fmt.Errorf("%s", str))
	}

	str = str[1 : len(str)-1]
	if str == "" {
		*result = []int{}
		return nil
	}

	parts := strings.Split(str, ",")
	*result = make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return helper.NewError(fmt.Sprintf("parsing int %q", part), err)
		}
		*result = append(*result, v)
	}
	return nil
}
