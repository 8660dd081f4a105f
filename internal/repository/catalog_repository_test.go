package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArystanIgen/master-thesis-files/internal/domain/tsp"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb/graphdbtest"
	"github.com/ArystanIgen/master-thesis-files/internal/repository"
)

func TestCatalogRepository_FindByName(t *testing.T) {
	engine := graphdbtest.NewEngine().
		OnContains("name: 'Kazakhstan'", graphdb.MustRow(graphdb.OID(20), "Kazakhstan"))
	repo := repository.NewCatalogRepository(nil)

	within(t, engine, func(ctx context.Context, sm *graphdb.SessionManager) error {
		node, err := repo.FindByName(ctx, sm, tsp.CountryLabel, "Kazakhstan")
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, tsp.CatalogNode{NodeID: 20, Name: "Kazakhstan"}, *node)

		missing, err := repo.FindByName(ctx, sm, tsp.CountryLabel, "Atlantis")
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})

	stmt := engine.Statements()[0]
	assert.Equal(t, graphdb.DialectCypher, stmt.Dialect)
	assert.Equal(t, "MATCH (n:COUNTRY { name: 'Kazakhstan' })\nRETURN n as node_id, n.name as name", stmt.Text)
}

func TestCatalogRepository_List(t *testing.T) {
	engine := graphdbtest.NewEngine().
		OnContains("(n:TIME_SLOT)",
			graphdb.MustRow(graphdb.OID(1), "Morning"),
			graphdb.MustRow(graphdb.OID(2), "Evening"),
		)
	repo := repository.NewCatalogRepository(nil)

	within(t, engine, func(ctx context.Context, sm *graphdb.SessionManager) error {
		res, err := repo.List(ctx, sm, tsp.TimeSlotLabel, 0)
		require.NoError(t, err)
		assert.Equal(t, []tsp.CatalogNode{{NodeID: 1, Name: "Morning"}, {NodeID: 2, Name: "Evening"}}, res.List())
		return nil
	})
}

func TestCatalogRepository_RejectsUnknownLabel(t *testing.T) {
	repo := repository.NewCatalogRepository(nil)
	exec, _ := rowsExecutor()

	_, err := repo.Match(context.Background(), exec, "TSP) DETACH DELETE (x", nil, 1)
	assert.True(t, repository.IsInvalidQuery(err))
}
