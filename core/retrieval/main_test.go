package retrieval

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/ragcore/database"
	"github.com/siherrmann/ragcore/helper"
	loadSql "github.com/siherrmann/ragcore/sql"
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

func initHandlers(t *testing.T) (*database.DocumentsDBHandler, *database.ChunksDBHandler, *database.EdgesDBHandler) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	documents, err := database.NewDocumentsDBHandler(db, true)
	require.NoError(t, err)
	edges, err := database.NewEdgesDBHandler(db, true)
	require.NoError(t, err)
	chunks, err := database.NewChunksDBHandler(db, 4, true)
	require.NoError(t, err)

	return documents, chunks, edges
}
