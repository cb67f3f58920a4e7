package graph

import (
	"context"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/ragcore/database"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
	loadSql "github.com/siherrmann/ragcore/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

type fixtures struct {
	enricher    *Enricher
	edges       *database.EdgesDBHandler
	entities    *database.EntitiesDBHandler
	communities *database.CommunitiesDBHandler
}

func initFixtures(t *testing.T) *fixtures {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	entities, err := database.NewEntitiesDBHandler(db, true)
	require.NoError(t, err)
	edges, err := database.NewEdgesDBHandler(db, true)
	require.NoError(t, err)
	communities, err := database.NewCommunitiesDBHandler(db, true)
	require.NoError(t, err)

	return &fixtures{
		enricher:    NewEnricher(edges, entities, communities),
		edges:       edges,
		entities:    entities,
		communities: communities,
	}
}

func insertEntity(t *testing.T, f *fixtures, name string) *model.Entity {
	entity := &model.Entity{Name: name, Type: "concept"}
	require.NoError(t, f.entities.InsertEntity(entity))
	return entity
}

func mentionEdge(t *testing.T, f *fixtures, chunkID int, entityID *model.Entity, weight float64) {
	chunkIDCopy := chunkID
	entityIDCopy := entityID.ID
	edge := &model.Edge{
		SourceChunkID:  &chunkIDCopy,
		TargetEntityID: &entityIDCopy,
		EdgeType:       model.EdgeTypeEntityMention,
		Weight:         weight,
	}
	require.NoError(t, f.edges.InsertEdge(edge))
}

func TestEnrichNoEdgesReturnsNil(t *testing.T) {
	f := initFixtures(t)

	entities, communities := f.enricher.Enrich([]int{1, 2, 3})
	assert.Nil(t, entities)
	assert.Nil(t, communities)
}

func TestEnrichAggregatesWeightAcrossChunks(t *testing.T) {
	f := initFixtures(t)

	go_ := insertEntity(t, f, "Go")
	rust := insertEntity(t, f, "Rust")

	mentionEdge(t, f, 101, go_, 0.6)
	mentionEdge(t, f, 102, go_, 0.5)
	mentionEdge(t, f, 103, rust, 0.2)

	entities, _ := f.enricher.Enrich([]int{101, 102, 103})
	require.Len(t, entities, 2)
	assert.Equal(t, "Go", entities[0].Entity.Name)
	assert.InDelta(t, 1.1, entities[0].Relevance, 0.0001)
	assert.Equal(t, "Rust", entities[1].Entity.Name)
	assert.InDelta(t, 0.2, entities[1].Relevance, 0.0001)
}

func TestEnrichCapsAtMaxEntities(t *testing.T) {
	f := initFixtures(t)

	for i := 0; i < defaultMaxEntities+3; i++ {
		entity := insertEntity(t, f, "entity "+string(rune('A'+i)))
		mentionEdge(t, f, 1, entity, float64(i+1))
	}

	entities, _ := f.enricher.Enrich([]int{1})
	assert.Len(t, entities, defaultMaxEntities)
	assert.InDelta(t, float64(defaultMaxEntities+3), entities[0].Relevance, 0.0001, "expected the heaviest edges to win the cap")
}

func TestEnrichResolvesCommunitiesByRelevance(t *testing.T) {
	f := initFixtures(t)

	go_ := insertEntity(t, f, "Go")
	rust := insertEntity(t, f, "Rust")
	python := insertEntity(t, f, "Python")

	mentionEdge(t, f, 1, go_, 1.0)
	mentionEdge(t, f, 1, rust, 1.0)
	mentionEdge(t, f, 1, python, 1.0)

	require.NoError(t, f.communities.InsertCommunity(&model.Community{
		Summary:   "systems languages",
		EntityIDs: []uuid.UUID{go_.ID, rust.ID},
	}))
	require.NoError(t, f.communities.InsertCommunity(&model.Community{
		Summary:   "scripting languages",
		EntityIDs: []uuid.UUID{python.ID},
	}))

	entities, communities := f.enricher.Enrich([]int{1})
	require.Len(t, entities, 3)
	require.Len(t, communities, 2)
	assert.Equal(t, "systems languages", communities[0].Community.Summary, "expected the community covering more candidates to rank first")
	assert.InDelta(t, 2.0/3.0, communities[0].Relevance, 0.0001)
	assert.ElementsMatch(t, []string{"Go", "Rust"}, communities[0].Entities)
	assert.Equal(t, "scripting languages", communities[1].Community.Summary)
	assert.InDelta(t, 1.0/3.0, communities[1].Relevance, 0.0001)
}

func TestEnrichSkipsCommunitiesWithNoCandidateOverlap(t *testing.T) {
	f := initFixtures(t)

	go_ := insertEntity(t, f, "Go")
	unrelated := insertEntity(t, f, "Unrelated")

	mentionEdge(t, f, 1, go_, 1.0)

	require.NoError(t, f.communities.InsertCommunity(&model.Community{
		Summary:   "unrelated community",
		EntityIDs: []uuid.UUID{unrelated.ID},
	}))

	_, communities := f.enricher.Enrich([]int{1})
	assert.Nil(t, communities)
}
