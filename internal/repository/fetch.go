// Package repository turns domain operations into engine statements and engine
// rows into domain records.
//
// Every read goes through Fetch: build the statement, execute it inside the
// caller's transaction, decode the rows against a schema and apply the
// cardinality rule. Repositories never open or resolve transactions; they are
// handed an Executor bound to one.
package repository

import (
	"context"
	"fmt"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// Executor runs one statement inside an active transaction and returns a single
// page of at most maxRows rows. *graphdb.SessionManager implements it.
type Executor interface {
	ExecuteQuery(ctx context.Context, stmt graphdb.Statement, maxRows int) ([]graphdb.Row, error)
}

var _ Executor = (*graphdb.SessionManager)(nil)

// Result is the outcome of Fetch after the cardinality rule has been applied:
// absent when no row came back, a single record when exactly one was asked
// for, otherwise a list in row order.
type Result[T any] struct {
	items  []T
	single bool
}

// Absent reports whether no record was found.
func (r Result[T]) Absent() bool { return len(r.items) == 0 }

// Single returns the record of a size-one fetch. ok is false when the result is
// absent or was fetched as a list.
func (r Result[T]) Single() (rec T, ok bool) {
	if !r.single || len(r.items) == 0 {
		return rec, false
	}
	return r.items[0], true
}

// List returns the records of a list fetch, or nil when the result is absent or
// was fetched as a single record.
func (r Result[T]) List() []T {
	if r.single {
		return nil
	}
	return r.items
}

// Records returns every record whatever the shape. It is handy for callers that
// print results.
func (r Result[T]) Records() []T { return r.items }

// First returns the first record, if any.
func (r Result[T]) First() (rec T, ok bool) {
	if len(r.items) == 0 {
		return rec, false
	}
	return r.items[0], true
}

// Fetch executes stmt asking for at most size rows and maps the rows onto T.
// A size of zero or less is treated as one.
func Fetch[T any](ctx context.Context, exec Executor, stmt graphdb.Statement, size int, schema graphdb.Schema[T]) (Result[T], error) {
	if size <= 0 {
		size = 1
	}

	rows, err := exec.ExecuteQuery(ctx, stmt, size)
	if err != nil {
		return Result[T]{}, err
	}

	records, err := graphdb.MapRows(rows, schema)
	if err != nil {
		return Result[T]{}, fmt.Errorf("repository: map %s result: %w", stmt.Dialect, err)
	}
	if len(records) == 0 {
		return Result[T]{}, nil
	}
	if size == 1 {
		return Result[T]{items: records[:1], single: true}, nil
	}
	return Result[T]{items: records}, nil
}

// fetchOne runs a size-one Fetch and returns a pointer to the record, or nil when
// nothing matched.
func fetchOne[T any](ctx context.Context, exec Executor, stmt graphdb.Statement, schema graphdb.Schema[T]) (*T, error) {
	res, err := Fetch(ctx, exec, stmt, 1, schema)
	if err != nil {
		return nil, err
	}
	rec, ok := res.Single()
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
