package graphdb_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// MockEngine is a testify mock of graphdb.Engine.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) OpenSession(ctx context.Context) (graphdb.SessionHandle, error) {
	args := m.Called(ctx)
	return args.Get(0).(graphdb.SessionHandle), args.Error(1)
}

func (m *MockEngine) BeginTx(ctx context.Context, s graphdb.SessionHandle) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockEngine) RunQuery(ctx context.Context, s graphdb.SessionHandle, stmt graphdb.Statement) (graphdb.QueryID, error) {
	args := m.Called(ctx, s, stmt)
	return args.Get(0).(graphdb.QueryID), args.Error(1)
}

func (m *MockEngine) FetchRows(ctx context.Context, s graphdb.SessionHandle, q graphdb.QueryID, maxRows int) ([]graphdb.Row, error) {
	args := m.Called(ctx, s, q, maxRows)
	rows, _ := args.Get(0).([]graphdb.Row)
	return rows, args.Error(1)
}

func (m *MockEngine) CloseQuery(ctx context.Context, s graphdb.SessionHandle, q graphdb.QueryID) error {
	return m.Called(ctx, s, q).Error(0)
}

func (m *MockEngine) CommitTx(ctx context.Context, s graphdb.SessionHandle) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockEngine) RollbackTx(ctx context.Context, s graphdb.SessionHandle) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockEngine) EndSession(ctx context.Context, s graphdb.SessionHandle) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockEngine) Close() error {
	return m.Called().Error(0)
}

var session = graphdb.SessionHandle{ID: 7}

func connectorFor(engine graphdb.Engine) graphdb.Connector {
	return graphdb.ConnectorFunc(func(context.Context) (graphdb.Engine, error) { return engine, nil })
}

// activeManager returns a manager whose transaction has been started on engine.
func activeManager(t *testing.T, engine *MockEngine, logger *zap.Logger) *graphdb.SessionManager {
	t.Helper()
	engine.On("OpenSession", mock.Anything).Return(session, nil).Once()
	engine.On("BeginTx", mock.Anything, session).Return(nil).Once()

	sm := graphdb.NewSessionManager(connectorFor(engine), logger)
	ctx := context.Background()
	require.NoError(t, sm.Create(ctx))
	require.NoError(t, sm.Begin(ctx))
	require.Equal(t, graphdb.StateActive, sm.State())
	return sm
}

func TestSessionManager_CreateConnectFailure(t *testing.T) {
	boom := errors.New("dial refused")
	sm := graphdb.NewSessionManager(graphdb.ConnectorFunc(func(context.Context) (graphdb.Engine, error) {
		return nil, boom
	}), nil)

	err := sm.Create(context.Background())
	require.Error(t, err)
	assert.True(t, graphdb.IsConnectionError(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, graphdb.StateNotStarted, sm.State())
}

func TestSessionManager_CreateSessionRejected(t *testing.T) {
	engine := new(MockEngine)
	engine.On("OpenSession", mock.Anything).Return(graphdb.SessionHandle{}, errors.New("rejected"))
	engine.On("Close").Return(nil)

	sm := graphdb.NewSessionManager(connectorFor(engine), nil)
	err := sm.Create(context.Background())

	require.Error(t, err)
	assert.True(t, graphdb.IsSessionError(err))
	assert.False(t, graphdb.IsConnectionError(err))
	engine.AssertCalled(t, "Close")
}

func TestSessionManager_CreateUnreachableEngine(t *testing.T) {
	engine := new(MockEngine)
	engine.On("OpenSession", mock.Anything).Return(graphdb.SessionHandle{}, fmt.Errorf("%w: connection refused", graphdb.ErrUnreachable))
	engine.On("Close").Return(nil)

	sm := graphdb.NewSessionManager(connectorFor(engine), nil)
	err := sm.Create(context.Background())

	require.Error(t, err)
	assert.True(t, graphdb.IsConnectionError(err))
	assert.False(t, graphdb.IsSessionError(err))
	assert.ErrorIs(t, err, graphdb.ErrUnreachable)
	assert.Equal(t, graphdb.StateNotStarted, sm.State())
	engine.AssertCalled(t, "Close")
}

func TestSessionManager_BeginFailureRollsBack(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := new(MockEngine)
	engine.On("OpenSession", mock.Anything).Return(session, nil)
	engine.On("BeginTx", mock.Anything, session).Return(errors.New("unavailable"))
	engine.On("RollbackTx", mock.Anything, session).Return(errors.New("nothing to roll back"))

	sm := graphdb.NewSessionManager(connectorFor(engine), zap.New(core))
	ctx := context.Background()
	require.NoError(t, sm.Create(ctx))

	err := sm.Begin(ctx)
	require.Error(t, err)
	assert.True(t, graphdb.IsConnectionError(err))
	assert.Contains(t, err.Error(), "unavailable")
	engine.AssertCalled(t, "RollbackTx", mock.Anything, session)
	assert.Equal(t, 1, logs.FilterMessage("Rollback transaction error").Len())
}

func TestSessionManager_BeginPreconditions(t *testing.T) {
	sm := graphdb.NewSessionManager(connectorFor(new(MockEngine)), nil)
	assert.ErrorIs(t, sm.Begin(context.Background()), graphdb.ErrNoSession)

	engine := new(MockEngine)
	sm = activeManager(t, engine, nil)
	assert.ErrorIs(t, sm.Begin(context.Background()), graphdb.ErrTxAlreadyStarted)
}

func TestSessionManager_ExecuteQuery(t *testing.T) {
	engine := new(MockEngine)
	sm := activeManager(t, engine, nil)
	stmt := graphdb.Algebra("GRAPH::SCAN('TSP')")
	rows := []graphdb.Row{graphdb.MustRow(graphdb.OID(1), "abc", "Air Co")}

	engine.On("RunQuery", mock.Anything, session, stmt).Return(graphdb.QueryID(11), nil)
	engine.On("FetchRows", mock.Anything, session, graphdb.QueryID(11), 5).Return(rows, nil)
	engine.On("CloseQuery", mock.Anything, session, graphdb.QueryID(11)).Return(nil)

	got, err := sm.ExecuteQuery(context.Background(), stmt, 5)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	engine.AssertExpectations(t)
}

func TestSessionManager_ExecuteQueryDefaults(t *testing.T) {
	engine := new(MockEngine)
	sm := activeManager(t, engine, nil)

	// Unknown dialects fall back to algebra and a zero page size to the default.
	sent := graphdb.Statement{Text: "GRAPH::SCAN('TSP')", Dialect: "gremlin"}
	want := graphdb.Algebra(sent.Text)
	engine.On("RunQuery", mock.Anything, session, want).Return(graphdb.QueryID(1), nil)
	engine.On("FetchRows", mock.Anything, session, graphdb.QueryID(1), graphdb.DefaultMaxRows).Return(nil, nil)
	engine.On("CloseQuery", mock.Anything, session, graphdb.QueryID(1)).Return(nil)

	got, err := sm.ExecuteQuery(context.Background(), sent, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	engine.AssertExpectations(t)
}

func TestSessionManager_ExecuteQueryRequiresActiveTx(t *testing.T) {
	engine := new(MockEngine)
	sm := graphdb.NewSessionManager(connectorFor(engine), nil)

	_, err := sm.ExecuteQuery(context.Background(), graphdb.Algebra("x"), 1)
	require.Error(t, err)
	assert.True(t, graphdb.IsQueryError(err))
	assert.ErrorIs(t, err, graphdb.ErrTxNotActive)
	engine.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionManager_ExecuteQueryRunFailure(t *testing.T) {
	engine := new(MockEngine)
	sm := activeManager(t, engine, nil)
	engine.On("RunQuery", mock.Anything, session, mock.Anything).Return(graphdb.QueryID(0), errors.New("syntax"))

	_, err := sm.ExecuteQuery(context.Background(), graphdb.Cypher("MATCH"), 1)
	require.Error(t, err)
	assert.True(t, graphdb.IsQueryError(err))

	var qe *graphdb.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, graphdb.DialectCypher, qe.Dialect)
	engine.AssertNotCalled(t, "CloseQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionManager_FetchFailureStillClosesQuery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := new(MockEngine)
	sm := activeManager(t, engine, zap.New(core))

	fetchErr := errors.New("stream reset")
	engine.On("RunQuery", mock.Anything, session, mock.Anything).Return(graphdb.QueryID(4), nil)
	engine.On("FetchRows", mock.Anything, session, graphdb.QueryID(4), 1).Return(nil, fetchErr)
	engine.On("CloseQuery", mock.Anything, session, graphdb.QueryID(4)).Return(errors.New("cursor gone"))

	_, err := sm.ExecuteQuery(context.Background(), graphdb.Algebra("x"), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr, "the fetch error wins over the close error")
	engine.AssertCalled(t, "CloseQuery", mock.Anything, session, graphdb.QueryID(4))
	assert.Equal(t, 1, logs.FilterMessage("Failed to close query").Len())
}

func TestSessionManager_CloseQueryFailureIsSwallowed(t *testing.T) {
	engine := new(MockEngine)
	sm := activeManager(t, engine, nil)
	engine.On("RunQuery", mock.Anything, session, mock.Anything).Return(graphdb.QueryID(4), nil)
	engine.On("FetchRows", mock.Anything, session, graphdb.QueryID(4), 1).Return([]graphdb.Row{graphdb.MustRow(true)}, nil)
	engine.On("CloseQuery", mock.Anything, session, graphdb.QueryID(4)).Return(errors.New("cursor gone"))

	rows, err := sm.ExecuteQuery(context.Background(), graphdb.Algebra("x"), 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSessionManager_CommitEndsSession(t *testing.T) {
	engine := new(MockEngine)
	sm := activeManager(t, engine, nil)
	engine.On("CommitTx", mock.Anything, session).Return(nil).Once()
	engine.On("EndSession", mock.Anything, session).Return(nil).Once()
	engine.On("Close").Return(nil).Once()

	ctx := context.Background()
	require.NoError(t, sm.Commit(ctx))
	assert.Equal(t, graphdb.StateCommitted, sm.State())

	require.NoError(t, sm.Close(ctx))
	require.NoError(t, sm.Close(ctx))
	assert.Equal(t, graphdb.StateClosed, sm.State())
	engine.AssertExpectations(t)
}

func TestSessionManager_CommitFailureStillEndsSession(t *testing.T) {
	engine := new(MockEngine)
	sm := activeManager(t, engine, nil)
	engine.On("CommitTx", mock.Anything, session).Return(errors.New("conflict"))
	engine.On("EndSession", mock.Anything, session).Return(nil)

	err := sm.Commit(context.Background())
	require.Error(t, err)
	assert.True(t, graphdb.IsConnectionError(err))
	assert.Contains(t, err.Error(), "conflict")
	engine.AssertCalled(t, "EndSession", mock.Anything, session)
}

func TestSessionManager_RollbackSwallowsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := new(MockEngine)
	sm := activeManager(t, engine, zap.New(core))
	engine.On("RollbackTx", mock.Anything, session).Return(errors.New("lost"))
	engine.On("EndSession", mock.Anything, session).Return(errors.New("lost too"))

	assert.NotPanics(t, func() { sm.Rollback(context.Background()) })
	assert.Equal(t, graphdb.StateRolledBack, sm.State())
	assert.Equal(t, 1, logs.FilterMessage("Rollback transaction error").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to end session").Len())
}

func TestSessionManager_CloseRollsBackActiveTx(t *testing.T) {
	engine := new(MockEngine)
	sm := activeManager(t, engine, nil)
	engine.On("RollbackTx", mock.Anything, session).Return(nil).Once()
	engine.On("EndSession", mock.Anything, session).Return(nil).Once()
	engine.On("Close").Return(nil).Once()

	require.NoError(t, sm.Close(context.Background()))
	engine.AssertExpectations(t)
}

func TestTxState_String(t *testing.T) {
	assert.Equal(t, "ACTIVE", graphdb.StateActive.String())
	assert.Equal(t, "ROLLED_BACK", graphdb.StateRolledBack.String())
	assert.Equal(t, "UNKNOWN", graphdb.TxState(99).String())
}
