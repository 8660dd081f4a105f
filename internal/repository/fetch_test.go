package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/repository"
)

type executorFunc func(ctx context.Context, stmt graphdb.Statement, maxRows int) ([]graphdb.Row, error)

func (f executorFunc) ExecuteQuery(ctx context.Context, stmt graphdb.Statement, maxRows int) ([]graphdb.Row, error) {
	return f(ctx, stmt, maxRows)
}

// rowsExecutor returns rows truncated to maxRows, like a single engine page.
func rowsExecutor(rows ...graphdb.Row) (repository.Executor, *int) {
	var asked int
	return executorFunc(func(_ context.Context, _ graphdb.Statement, maxRows int) ([]graphdb.Row, error) {
		asked = maxRows
		if len(rows) > maxRows {
			return rows[:maxRows], nil
		}
		return rows, nil
	}), &asked
}

type item struct {
	NodeID int64  `graph:"node_id"`
	Name   string `graph:"name"`
}

var itemSchema = graphdb.MustSchema[item]()

func TestFetch_Cardinality(t *testing.T) {
	ctx := context.Background()
	stmt := graphdb.Algebra("GRAPH::SCAN('X')")
	rows := []graphdb.Row{
		{graphdb.OID(1), graphdb.String("a")},
		{graphdb.OID(2), graphdb.String("b")},
		{graphdb.OID(3), graphdb.String("c")},
	}

	t.Run("zero rows is absent", func(t *testing.T) {
		exec, _ := rowsExecutor()
		res, err := repository.Fetch(ctx, exec, stmt, 5, itemSchema)
		require.NoError(t, err)
		assert.True(t, res.Absent())
		_, ok := res.Single()
		assert.False(t, ok)
		assert.Empty(t, res.List())
	})

	t.Run("size one returns a single record", func(t *testing.T) {
		exec, asked := rowsExecutor(rows...)
		res, err := repository.Fetch(ctx, exec, stmt, 1, itemSchema)
		require.NoError(t, err)
		assert.Equal(t, 1, *asked)

		rec, ok := res.Single()
		require.True(t, ok)
		assert.Equal(t, item{NodeID: 1, Name: "a"}, rec)
		assert.Nil(t, res.List(), "a single result is not a one-element list")
	})

	t.Run("size below one behaves like one", func(t *testing.T) {
		exec, asked := rowsExecutor(rows...)
		res, err := repository.Fetch(ctx, exec, stmt, 0, itemSchema)
		require.NoError(t, err)
		assert.Equal(t, 1, *asked)
		_, ok := res.Single()
		assert.True(t, ok)
	})

	t.Run("larger size returns the list in row order", func(t *testing.T) {
		exec, asked := rowsExecutor(rows...)
		res, err := repository.Fetch(ctx, exec, stmt, 10, itemSchema)
		require.NoError(t, err)
		assert.Equal(t, 10, *asked)

		_, ok := res.Single()
		assert.False(t, ok)
		assert.Equal(t, []item{{1, "a"}, {2, "b"}, {3, "c"}}, res.List())
		first, ok := res.First()
		require.True(t, ok)
		assert.Equal(t, "a", first.Name)
	})

	t.Run("larger size with one row is still a list", func(t *testing.T) {
		exec, _ := rowsExecutor(rows[0])
		res, err := repository.Fetch(ctx, exec, stmt, 10, itemSchema)
		require.NoError(t, err)
		assert.Len(t, res.List(), 1)
		assert.Len(t, res.Records(), 1)
	})
}

func TestFetch_Errors(t *testing.T) {
	ctx := context.Background()
	boom := &graphdb.QueryError{Op: "run query", Err: errors.New("boom")}

	exec := executorFunc(func(context.Context, graphdb.Statement, int) ([]graphdb.Row, error) { return nil, boom })
	_, err := repository.Fetch(ctx, exec, graphdb.Algebra("x"), 1, itemSchema)
	assert.True(t, graphdb.IsQueryError(err))

	short, _ := rowsExecutor(graphdb.Row{graphdb.OID(1)})
	_, err = repository.Fetch(ctx, short, graphdb.Algebra("x"), 1, itemSchema)
	assert.ErrorIs(t, err, graphdb.ErrColumnMismatch)
}
