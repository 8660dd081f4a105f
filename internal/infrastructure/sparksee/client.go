// Package sparksee is the gRPC transport to a Sparksee graph engine.
//
// A Dialer opens one Client per unit of work. The Client maps each
// graphdb.Engine call onto one unary RPC of the SparkseeGRPCServer service.
// Messages are encoded with protowire; api/sparksee_server.proto documents the
// field numbers.
package sparksee

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// ServiceName is the fully qualified gRPC service name of the engine.
const ServiceName = "sparksee.SparkseeGRPCServer"

// Full method names.
const (
	MethodNewSession    = "/" + ServiceName + "/NewSession"
	MethodBeginTx       = "/" + ServiceName + "/BeginTx"
	MethodRunQuery      = "/" + ServiceName + "/RunQuery"
	MethodGetResultRows = "/" + ServiceName + "/GetResultRows"
	MethodCloseQuery    = "/" + ServiceName + "/CloseQuery"
	MethodCommitTx      = "/" + ServiceName + "/CommitTx"
	MethodRollbackTx    = "/" + ServiceName + "/RollbackTx"
	MethodEndSession    = "/" + ServiceName + "/EndSession"
)

// Client is a graphdb.Engine backed by one gRPC connection.
type Client struct {
	conn        grpc.ClientConnInterface
	closer      func() error
	callTimeout time.Duration
	breaker     *Breaker
	logger      *zap.Logger
}

// NewClient wraps an established connection. The connection must use Codec,
// which Dialer arranges through a default call option.
func NewClient(conn *grpc.ClientConn, callTimeout time.Duration, breaker *Breaker, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		conn:        conn,
		closer:      conn.Close,
		callTimeout: callTimeout,
		breaker:     breaker,
		logger:      logger.Named("sparksee_client"),
	}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp message) error {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	call := func() error {
		return c.conn.Invoke(ctx, method, req, resp)
	}
	if c.breaker != nil {
		return c.breaker.Do(call)
	}
	return call()
}

// OpenSession is the first call on a connection. Connections dial lazily, so an
// engine that cannot be reached shows up here and is reported as
// graphdb.ErrUnreachable.
func (c *Client) OpenSession(ctx context.Context) (graphdb.SessionHandle, error) {
	var resp sessionMsg
	if err := c.invoke(ctx, MethodNewSession, &emptyMsg{}, &resp); err != nil {
		return graphdb.SessionHandle{}, markUnreachable(err)
	}
	return graphdb.SessionHandle{ID: resp.ID}, nil
}

// unreachableError tags a transport failure with graphdb.ErrUnreachable and keeps
// its gRPC status visible to status.Code.
type unreachableError struct{ err error }

func (e *unreachableError) Error() string   { return e.err.Error() }
func (e *unreachableError) Unwrap() []error { return []error{graphdb.ErrUnreachable, e.err} }

func markUnreachable(err error) error {
	if errors.Is(err, ErrBreakerOpen) {
		return &unreachableError{err: err}
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return &unreachableError{err: err}
	}
	return err
}

func (c *Client) BeginTx(ctx context.Context, s graphdb.SessionHandle) error {
	return c.invoke(ctx, MethodBeginTx, &sessionMsg{ID: s.ID}, &emptyMsg{})
}

func (c *Client) RunQuery(ctx context.Context, s graphdb.SessionHandle, stmt graphdb.Statement) (graphdb.QueryID, error) {
	req := &queryMsg{
		Session: sessionMsg{ID: s.ID},
		Dialect: stmt.Dialect.OrDefault(),
		Text:    stmt.Text,
	}
	var resp queryIDMsg
	if err := c.invoke(ctx, MethodRunQuery, req, &resp); err != nil {
		return 0, err
	}
	return graphdb.QueryID(resp.QueryID), nil
}

func (c *Client) FetchRows(ctx context.Context, s graphdb.SessionHandle, q graphdb.QueryID, maxRows int) ([]graphdb.Row, error) {
	req := &resultRowsArgsMsg{
		ID:      resultSetIDMsg{Session: sessionMsg{ID: s.ID}, QueryID: int64(q)},
		MaxRows: rowLimit(maxRows),
	}
	var resp resultRowsMsg
	if err := c.invoke(ctx, MethodGetResultRows, req, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// rowLimit fits maxRows into the int32 field of the request.
func rowLimit(maxRows int) int32 {
	switch {
	case maxRows < 0:
		return 0
	case maxRows > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(maxRows)
}

func (c *Client) CloseQuery(ctx context.Context, s graphdb.SessionHandle, q graphdb.QueryID) error {
	req := &resultSetIDMsg{Session: sessionMsg{ID: s.ID}, QueryID: int64(q)}
	return c.invoke(ctx, MethodCloseQuery, req, &emptyMsg{})
}

func (c *Client) CommitTx(ctx context.Context, s graphdb.SessionHandle) error {
	return c.invoke(ctx, MethodCommitTx, &sessionMsg{ID: s.ID}, &emptyMsg{})
}

func (c *Client) RollbackTx(ctx context.Context, s graphdb.SessionHandle) error {
	return c.invoke(ctx, MethodRollbackTx, &sessionMsg{ID: s.ID}, &emptyMsg{})
}

func (c *Client) EndSession(ctx context.Context, s graphdb.SessionHandle) error {
	return c.invoke(ctx, MethodEndSession, &sessionMsg{ID: s.ID}, &emptyMsg{})
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.logger.Debug("Closing engine connection")
	return c.closer()
}

var _ graphdb.Engine = (*Client)(nil)
