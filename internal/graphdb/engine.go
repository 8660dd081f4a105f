package graphdb

import "context"

// Dialect selects the statement language understood by the engine. It is chosen
// per statement, never per session.
type Dialect string

const (
	DialectAlgebra Dialect = "algebra"
	DialectCypher  Dialect = "cypher"
)

// Valid reports whether d is one of the known dialects.
func (d Dialect) Valid() bool {
	return d == DialectAlgebra || d == DialectCypher
}

// OrDefault returns d, or DialectAlgebra when d is not a known dialect.
func (d Dialect) OrDefault() Dialect {
	if d.Valid() {
		return d
	}
	return DialectAlgebra
}

// Statement is immutable statement text tagged with its dialect.
type Statement struct {
	Text    string
	Dialect Dialect
}

// Algebra builds an algebra-dialect statement.
func Algebra(text string) Statement {
	return Statement{Text: text, Dialect: DialectAlgebra}
}

// Cypher builds a pattern-dialect statement.
func Cypher(text string) Statement {
	return Statement{Text: text, Dialect: DialectCypher}
}

func (s Statement) String() string {
	return string(s.Dialect) + ": " + s.Text
}

// SessionHandle identifies an engine-side session.
type SessionHandle struct {
	ID int64
}

// QueryID identifies a server-side cursor opened by RunQuery.
type QueryID int64

// Engine is the remote procedure surface of the graph engine. One Engine value
// owns one channel; implementations are not required to be safe for concurrent
// use by more than one session manager.
type Engine interface {
	OpenSession(ctx context.Context) (SessionHandle, error)
	BeginTx(ctx context.Context, s SessionHandle) error
	RunQuery(ctx context.Context, s SessionHandle, stmt Statement) (QueryID, error)
	// FetchRows returns a single page of at most maxRows rows.
	FetchRows(ctx context.Context, s SessionHandle, q QueryID, maxRows int) ([]Row, error)
	CloseQuery(ctx context.Context, s SessionHandle, q QueryID) error
	CommitTx(ctx context.Context, s SessionHandle) error
	RollbackTx(ctx context.Context, s SessionHandle) error
	EndSession(ctx context.Context, s SessionHandle) error
	// Close releases the underlying channel.
	Close() error
}

// Connector opens a fresh Engine channel. Every unit of work connects on its own.
type Connector interface {
	Connect(ctx context.Context) (Engine, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context) (Engine, error)

func (f ConnectorFunc) Connect(ctx context.Context) (Engine, error) { return f(ctx) }
