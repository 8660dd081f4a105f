// Package graphdbtest provides an in-memory scripted graph engine for tests.
//
// The engine records every call it receives and answers RunQuery with rows
// registered up front through On and OnContains. It never interprets statement
// text, so tests stay focused on what the client sends and how it handles the
// answer.
package graphdbtest

import (
	"context"
	"strings"
	"sync"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// Method names recorded in Call.Method.
const (
	MethodOpenSession = "OpenSession"
	MethodBeginTx     = "BeginTx"
	MethodRunQuery    = "RunQuery"
	MethodFetchRows   = "FetchRows"
	MethodCloseQuery  = "CloseQuery"
	MethodCommitTx    = "CommitTx"
	MethodRollbackTx  = "RollbackTx"
	MethodEndSession  = "EndSession"
	MethodClose       = "Close"
	MethodConnect     = "Connect"
)

// Call is one recorded engine invocation.
type Call struct {
	Method    string
	Session   graphdb.SessionHandle
	Statement graphdb.Statement
	QueryID   graphdb.QueryID
	MaxRows   int
}

type rule struct {
	match func(graphdb.Statement) bool
	rows  []graphdb.Row
	err   error
}

// Engine is a scripted graphdb.Engine. The zero value is not usable; call NewEngine.
type Engine struct {
	mu          sync.Mutex
	nextSession int64
	nextQuery   int64
	rules       []rule
	pending     map[graphdb.QueryID][]graphdb.Row
	failures    map[string]error
	calls       []Call
}

// NewEngine returns an engine with no scripted answers. Every statement returns
// zero rows until a rule says otherwise.
func NewEngine() *Engine {
	return &Engine{
		nextSession: 100,
		pending:     make(map[graphdb.QueryID][]graphdb.Row),
		failures:    make(map[string]error),
	}
}

// On answers statements accepted by match with rows. Rules are tried in the order
// they were registered.
func (e *Engine) On(match func(graphdb.Statement) bool, rows ...graphdb.Row) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rule{match: match, rows: rows})
	return e
}

// OnContains answers statements whose text contains substr with rows.
func (e *Engine) OnContains(substr string, rows ...graphdb.Row) *Engine {
	return e.On(containing(substr), rows...)
}

// OnContainsError makes RunQuery fail with err for statements containing substr.
func (e *Engine) OnContainsError(substr string, err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rule{match: containing(substr), err: err})
	return e
}

// Fail makes every call to method return err.
func (e *Engine) Fail(method string, err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[method] = err
	return e
}

// Connector returns a connector that hands out this engine on every Connect.
func (e *Engine) Connector() graphdb.Connector {
	return graphdb.ConnectorFunc(func(ctx context.Context) (graphdb.Engine, error) {
		if err := e.record(Call{Method: MethodConnect}); err != nil {
			return nil, err
		}
		return e, nil
	})
}

// Calls returns a copy of the recorded calls.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}

// Methods returns the recorded method names in order.
func (e *Engine) Methods() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = c.Method
	}
	return out
}

// Count returns how many times method was called.
func (e *Engine) Count(method string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Statements returns every statement passed to RunQuery in order.
func (e *Engine) Statements() []graphdb.Statement {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []graphdb.Statement
	for _, c := range e.calls {
		if c.Method == MethodRunQuery {
			out = append(out, c.Statement)
		}
	}
	return out
}

// StatementsContaining returns the recorded statements whose text contains substr.
func (e *Engine) StatementsContaining(substr string) []graphdb.Statement {
	var out []graphdb.Statement
	for _, s := range e.Statements() {
		if strings.Contains(s.Text, substr) {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) OpenSession(ctx context.Context) (graphdb.SessionHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.recordLocked(Call{Method: MethodOpenSession}); err != nil {
		return graphdb.SessionHandle{}, err
	}
	e.nextSession++
	return graphdb.SessionHandle{ID: e.nextSession}, nil
}

func (e *Engine) BeginTx(ctx context.Context, s graphdb.SessionHandle) error {
	return e.record(Call{Method: MethodBeginTx, Session: s})
}

func (e *Engine) RunQuery(ctx context.Context, s graphdb.SessionHandle, stmt graphdb.Statement) (graphdb.QueryID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.recordLocked(Call{Method: MethodRunQuery, Session: s, Statement: stmt}); err != nil {
		return 0, err
	}

	var rows []graphdb.Row
	for _, r := range e.rules {
		if !r.match(stmt) {
			continue
		}
		if r.err != nil {
			return 0, r.err
		}
		rows = r.rows
		break
	}

	e.nextQuery++
	id := graphdb.QueryID(e.nextQuery)
	e.pending[id] = rows
	return id, nil
}

func (e *Engine) FetchRows(ctx context.Context, s graphdb.SessionHandle, q graphdb.QueryID, maxRows int) ([]graphdb.Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.recordLocked(Call{Method: MethodFetchRows, Session: s, QueryID: q, MaxRows: maxRows}); err != nil {
		return nil, err
	}
	rows := e.pending[q]
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return rows, nil
}

func (e *Engine) CloseQuery(ctx context.Context, s graphdb.SessionHandle, q graphdb.QueryID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, q)
	return e.recordLocked(Call{Method: MethodCloseQuery, Session: s, QueryID: q})
}

func (e *Engine) CommitTx(ctx context.Context, s graphdb.SessionHandle) error {
	return e.record(Call{Method: MethodCommitTx, Session: s})
}

func (e *Engine) RollbackTx(ctx context.Context, s graphdb.SessionHandle) error {
	return e.record(Call{Method: MethodRollbackTx, Session: s})
}

func (e *Engine) EndSession(ctx context.Context, s graphdb.SessionHandle) error {
	return e.record(Call{Method: MethodEndSession, Session: s})
}

func (e *Engine) Close() error {
	return e.record(Call{Method: MethodClose})
}

func (e *Engine) record(c Call) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordLocked(c)
}

func (e *Engine) recordLocked(c Call) error {
	e.calls = append(e.calls, c)
	return e.failures[c.Method]
}

func containing(substr string) func(graphdb.Statement) bool {
	return func(s graphdb.Statement) bool { return strings.Contains(s.Text, substr) }
}

var _ graphdb.Engine = (*Engine)(nil)
