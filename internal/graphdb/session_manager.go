package graphdb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxRows is the page size used when a caller asks for zero or fewer rows.
const DefaultMaxRows = 10

// TxState tracks where a SessionManager is in its lifecycle.
type TxState int

const (
	StateNotStarted TxState = iota
	StateCreated
	StateActive
	StateCommitted
	StateRolledBack
	StateClosed
)

func (s TxState) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateCreated:
		return "CREATED"
	case StateActive:
		return "ACTIVE"
	case StateCommitted:
		return "COMMITTED"
	case StateRolledBack:
		return "ROLLED_BACK"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// SessionManager owns one engine channel, one session handle and at most one
// transaction. Its methods are serialized by a mutex; it is meant to be driven
// by a single logical caller for the lifetime of a unit of work.
//
//	NotStarted --Create--> Created --Begin--> Active --Commit|Rollback--> resolved --Close--> Closed
type SessionManager struct {
	connector Connector
	logger    *zap.Logger

	mu           sync.Mutex
	engine       Engine
	session      SessionHandle
	state        TxState
	sessionEnded bool
}

// NewSessionManager creates a manager that will open its channel through connector.
func NewSessionManager(connector Connector, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		connector: connector,
		logger:    logger.Named("session_manager"),
		state:     StateNotStarted,
	}
}

// State returns the current lifecycle state.
func (m *SessionManager) State() TxState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the engine session handle. It is the zero handle before Create.
func (m *SessionManager) Session() SessionHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Create opens the transport channel and an engine session.
func (m *SessionManager) Create(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateNotStarted {
		return fmt.Errorf("graphdb: create: session already created (state %s)", m.state)
	}

	engine, err := m.connector.Connect(ctx)
	if err != nil {
		m.logger.Error("Failed to create engine channel", zap.Error(err))
		return &ConnectionError{Op: "connect", Err: err}
	}

	session, err := engine.OpenSession(ctx)
	if err != nil {
		m.logger.Error("Failed to create engine session", zap.Error(err))
		if cerr := engine.Close(); cerr != nil {
			m.logger.Warn("Failed to close channel after session error", zap.Error(cerr))
		}
		if errors.Is(err, ErrUnreachable) {
			return &ConnectionError{Op: "connect", Err: err}
		}
		return &SessionError{Op: "open session", Err: err}
	}

	m.engine = engine
	m.session = session
	m.state = StateCreated
	m.logger.Debug("Engine session created", zap.Int64("session_id", session.ID))
	return nil
}

// Begin starts a transaction on the current session. When the engine refuses, a
// best-effort rollback is attempted before the ConnectionError is returned.
func (m *SessionManager) Begin(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateCreated:
	case StateNotStarted:
		return fmt.Errorf("graphdb: begin: %w", ErrNoSession)
	case StateActive:
		return fmt.Errorf("graphdb: begin: %w", ErrTxAlreadyStarted)
	default:
		return fmt.Errorf("graphdb: begin: %w", ErrClosed)
	}

	if err := m.engine.BeginTx(ctx, m.session); err != nil {
		m.logger.Error("Transaction error", zap.Int64("session_id", m.session.ID), zap.Error(err))
		m.rollbackLocked(ctx)
		return &ConnectionError{Op: "begin transaction", Err: err}
	}

	m.state = StateActive
	m.logger.Debug("Transaction started", zap.Int64("session_id", m.session.ID))
	return nil
}

// ExecuteQuery runs stmt, fetches one page of up to maxRows rows and releases the
// server-side cursor. The cursor is released even when the fetch fails; a failure
// to release it is logged and never returned.
func (m *SessionManager) ExecuteQuery(ctx context.Context, stmt Statement, maxRows int) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt.Dialect = stmt.Dialect.OrDefault()
	if m.state != StateActive {
		return nil, &QueryError{Op: "execute", Dialect: stmt.Dialect, Err: ErrTxNotActive}
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	queryID, err := m.engine.RunQuery(ctx, m.session, stmt)
	if err != nil {
		m.logger.Error("Query run error",
			zap.String("dialect", string(stmt.Dialect)),
			zap.Error(err),
		)
		return nil, &QueryError{Op: "run query", Dialect: stmt.Dialect, Err: err}
	}

	rows, fetchErr := m.engine.FetchRows(ctx, m.session, queryID, maxRows)

	if err := m.engine.CloseQuery(ctx, m.session, queryID); err != nil {
		m.logger.Warn("Failed to close query",
			zap.Int64("query_id", int64(queryID)),
			zap.Error(err),
		)
	}

	if fetchErr != nil {
		m.logger.Error("Fetch rows error",
			zap.Int64("query_id", int64(queryID)),
			zap.Error(fetchErr),
		)
		return nil, &QueryError{Op: "fetch rows", Dialect: stmt.Dialect, Err: fetchErr}
	}

	m.logger.Debug("Query executed",
		zap.String("dialect", string(stmt.Dialect)),
		zap.Int64("query_id", int64(queryID)),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// Commit commits the active transaction and then ends the session whether or not
// the commit succeeded.
func (m *SessionManager) Commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return &ConnectionError{Op: "commit", Err: ErrTxNotActive}
	}

	commitErr := m.engine.CommitTx(ctx, m.session)
	if commitErr != nil {
		m.logger.Error("Commit transaction error", zap.Int64("session_id", m.session.ID), zap.Error(commitErr))
		m.state = StateRolledBack
	} else {
		m.state = StateCommitted
	}

	endErr := m.endSessionLocked(ctx)

	if commitErr != nil {
		return &ConnectionError{Op: "commit transaction", Err: commitErr}
	}
	if endErr != nil {
		return &ConnectionError{Op: "end session", Err: endErr}
	}
	return nil
}

// Rollback rolls back the active transaction and ends the session. Failures are
// logged and swallowed: rollback usually runs on an error path and must not hide
// the original cause.
func (m *SessionManager) Rollback(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		m.logger.Debug("Rollback skipped", zap.Stringer("state", m.state))
		return
	}
	m.rollbackLocked(ctx)
	if err := m.endSessionLocked(ctx); err != nil {
		m.logger.Warn("Failed to end session", zap.Int64("session_id", m.session.ID), zap.Error(err))
	}
}

// Close ends the session if it is still open and releases the channel. An active
// transaction is rolled back first. Close is idempotent.
func (m *SessionManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateClosed || m.state == StateNotStarted {
		m.state = StateClosed
		return nil
	}

	if m.state == StateActive {
		m.rollbackLocked(ctx)
	}
	if err := m.endSessionLocked(ctx); err != nil {
		m.logger.Warn("Failed to end session", zap.Int64("session_id", m.session.ID), zap.Error(err))
	}

	m.state = StateClosed
	if err := m.engine.Close(); err != nil {
		return &ConnectionError{Op: "close channel", Err: err}
	}
	return nil
}

func (m *SessionManager) rollbackLocked(ctx context.Context) {
	m.logger.Warn("Performing rollback", zap.Int64("session_id", m.session.ID))
	if err := m.engine.RollbackTx(ctx, m.session); err != nil {
		m.logger.Error("Rollback transaction error", zap.Int64("session_id", m.session.ID), zap.Error(err))
	}
	m.state = StateRolledBack
}

func (m *SessionManager) endSessionLocked(ctx context.Context) error {
	if m.sessionEnded {
		return nil
	}
	m.sessionEnded = true
	return m.engine.EndSession(ctx, m.session)
}
