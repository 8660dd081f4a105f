// Package observability provides metrics and tracing hooks for the graph client.
//
// # Key Components
//
// ## Metrics (metrics.go)
//
// Collector owns a Prometheus registry with:
//   - graph_rpc_total{method,status}: engine calls by gRPC status code
//   - graph_rpc_duration_seconds{method}
//   - graph_units_of_work_total{outcome}: committed, rolled_back or failed
//
// Collector implements graphdb.UnitOfWorkObserver and is passed to the
// unit-of-work factory with graphdb.WithObserver.
//
// ## Tracing (tracing.go)
//
// TracerProvider wraps the OpenTelemetry SDK. Export pipelines are left to the
// caller, which registers span processors through NewTracerProvider options.
//
// ## Engine decoration (engine.go)
//
// InstrumentConnector wraps every engine a connector hands out so each RPC
// produces one client span and one metric sample:
//
//	connector := observability.InstrumentConnector(dialer, collector, tp.Tracer())
//	factory := graphdb.NewFactory(connector, graphdb.WithObserver(collector))
package observability
