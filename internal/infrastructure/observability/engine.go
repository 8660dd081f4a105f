package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// Method labels used for metrics and span names.
const (
	MethodOpenSession = "NewSession"
	MethodBeginTx     = "BeginTx"
	MethodRunQuery    = "RunQuery"
	MethodFetchRows   = "GetResultRows"
	MethodCloseQuery  = "CloseQuery"
	MethodCommitTx    = "CommitTx"
	MethodRollbackTx  = "RollbackTx"
	MethodEndSession  = "EndSession"
)

// instrumentedEngine records a metric sample and a span around every engine call.
type instrumentedEngine struct {
	next      graphdb.Engine
	collector *Collector
	tracer    trace.Tracer
}

// InstrumentEngine decorates engine with metrics and tracing. Either collector
// or tracer may be nil.
func InstrumentEngine(engine graphdb.Engine, collector *Collector, tracer trace.Tracer) graphdb.Engine {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &instrumentedEngine{next: engine, collector: collector, tracer: tracer}
}

// InstrumentConnector decorates every engine handed out by connector.
func InstrumentConnector(connector graphdb.Connector, collector *Collector, tracer trace.Tracer) graphdb.Connector {
	return graphdb.ConnectorFunc(func(ctx context.Context) (graphdb.Engine, error) {
		engine, err := connector.Connect(ctx)
		if err != nil {
			return nil, err
		}
		return InstrumentEngine(engine, collector, tracer), nil
	})
}

func (e *instrumentedEngine) observe(ctx context.Context, method string, attrs []attribute.KeyValue, call func(ctx context.Context, span trace.Span) error) error {
	ctx, span := e.tracer.Start(ctx, "sparksee."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	err := call(ctx, span)
	if e.collector != nil {
		e.collector.ObserveRPC(method, err, time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (e *instrumentedEngine) OpenSession(ctx context.Context) (s graphdb.SessionHandle, err error) {
	err = e.observe(ctx, MethodOpenSession, nil, func(ctx context.Context, span trace.Span) error {
		s, err = e.next.OpenSession(ctx)
		if err == nil {
			span.SetAttributes(AttrSessionID.Int64(s.ID))
		}
		return err
	})
	return s, err
}

func (e *instrumentedEngine) BeginTx(ctx context.Context, s graphdb.SessionHandle) error {
	return e.observe(ctx, MethodBeginTx, sessionAttributes(s), func(ctx context.Context, _ trace.Span) error {
		return e.next.BeginTx(ctx, s)
	})
}

func (e *instrumentedEngine) RunQuery(ctx context.Context, s graphdb.SessionHandle, stmt graphdb.Statement) (q graphdb.QueryID, err error) {
	err = e.observe(ctx, MethodRunQuery, statementAttributes(s, stmt), func(ctx context.Context, span trace.Span) error {
		q, err = e.next.RunQuery(ctx, s, stmt)
		if err == nil {
			span.SetAttributes(AttrQueryID.Int64(int64(q)))
		}
		return err
	})
	return q, err
}

func (e *instrumentedEngine) FetchRows(ctx context.Context, s graphdb.SessionHandle, q graphdb.QueryID, maxRows int) (rows []graphdb.Row, err error) {
	attrs := append(queryAttributes(s, q), AttrMaxRows.Int(maxRows))
	err = e.observe(ctx, MethodFetchRows, attrs, func(ctx context.Context, span trace.Span) error {
		rows, err = e.next.FetchRows(ctx, s, q, maxRows)
		span.SetAttributes(AttrRowCount.Int(len(rows)))
		return err
	})
	return rows, err
}

func (e *instrumentedEngine) CloseQuery(ctx context.Context, s graphdb.SessionHandle, q graphdb.QueryID) error {
	return e.observe(ctx, MethodCloseQuery, queryAttributes(s, q), func(ctx context.Context, _ trace.Span) error {
		return e.next.CloseQuery(ctx, s, q)
	})
}

func (e *instrumentedEngine) CommitTx(ctx context.Context, s graphdb.SessionHandle) error {
	return e.observe(ctx, MethodCommitTx, sessionAttributes(s), func(ctx context.Context, _ trace.Span) error {
		return e.next.CommitTx(ctx, s)
	})
}

func (e *instrumentedEngine) RollbackTx(ctx context.Context, s graphdb.SessionHandle) error {
	return e.observe(ctx, MethodRollbackTx, sessionAttributes(s), func(ctx context.Context, _ trace.Span) error {
		return e.next.RollbackTx(ctx, s)
	})
}

func (e *instrumentedEngine) EndSession(ctx context.Context, s graphdb.SessionHandle) error {
	return e.observe(ctx, MethodEndSession, sessionAttributes(s), func(ctx context.Context, _ trace.Span) error {
		return e.next.EndSession(ctx, s)
	})
}

// Close is not an RPC and is passed through unobserved.
func (e *instrumentedEngine) Close() error {
	return e.next.Close()
}
