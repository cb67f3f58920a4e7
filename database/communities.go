package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
	loadSql "github.com/siherrmann/ragcore/sql"
)

// CommunitiesDBHandlerFunctions defines the interface for community
// database operations.
type CommunitiesDBHandlerFunctions interface {
	InsertCommunity(community *model.Community) error
	CommunitiesForEntities(entityIDs []uuid.UUID) ([]*model.Community, error)
}

// CommunitiesDBHandler handles community-related database operations.
// Communities have no teacher-pack precedent; the handler follows the
// same NewXDBHandler(db, force) + CreateTable() + stored-procedure
// convention as EntitiesDBHandler.
type CommunitiesDBHandler struct {
	db *helper.Database
}

func NewCommunitiesDBHandler(db *helper.Database, force bool) (*CommunitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &CommunitiesDBHandler{db: db}

	if err := loadSql.LoadCommunitiesSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load communities sql", err)
	}
	if err := h.CreateTable(); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CommunitiesDBHandler")
	return h, nil
}

func (h *CommunitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_communities();`)
	if err != nil {
		log.Panicf("error initializing communities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table communities")
	return nil
}

// InsertCommunity inserts a new community snapshot, kept for
// integration tests to seed a graph without the external graph builder.
func (h *CommunitiesDBHandler) InsertCommunity(community *model.Community) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_community($1, $2, $3, $4)`,
		community.Summary,
		pq.Array(community.EntityIDs),
		pq.Array(community.Relations),
		community.ProcessedAt,
	)
	return scanCommunity(row.Scan, community)
}

// CommunitiesForEntities returns, from the latest processing
// timestamp's community set, every community sharing at least one
// entity with the given candidate set.
func (h *CommunitiesDBHandler) CommunitiesForEntities(entityIDs []uuid.UUID) ([]*model.Community, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	rows, err := h.db.Instance.Query(`SELECT * FROM communities_for_entities($1)`, pq.Array(entityIDs))
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var communities []*model.Community
	for rows.Next() {
		community := &model.Community{}
		if err := scanCommunity(rows.Scan, community); err != nil {
			return nil, err
		}
		communities = append(communities, community)
	}
	return communities, rowsErr(rows)
}

func scanCommunity(scan func(dest ...interface{}) error, community *model.Community) error {
	err := scan(
		&community.ID,
		&community.Summary,
		pq.Array(&community.EntityIDs),
		pq.Array(&community.Relations),
		&community.EntityCount,
		&community.RelationCount,
		&community.ProcessedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}
