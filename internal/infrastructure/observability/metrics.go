package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/status"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// Collector holds the Prometheus metrics of the graph client. Each collector
// owns its registry, so several can live in one process (tests, one per CLI run).
type Collector struct {
	registry *prometheus.Registry

	// Engine RPC metrics
	RPCs        *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	// Unit of work metrics
	UnitsOfWork        *prometheus.CounterVec
	UnitOfWorkDuration *prometheus.HistogramVec
}

// NewCollector creates a metrics collector with the given namespace. An empty
// namespace yields bare graph_* metric names.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	rpcs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "rpc_total",
			Help:      "Total number of graph engine RPCs by method and status code",
		},
		[]string{"method", "status"},
	)

	rpcDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "rpc_duration_seconds",
			Help:      "Graph engine RPC duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	unitsOfWork := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "units_of_work_total",
			Help:      "Total number of units of work by outcome",
		},
		[]string{"outcome"},
	)

	unitOfWorkDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "unit_of_work_duration_seconds",
			Help:      "Unit of work duration from begin to resolution in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	registry.MustRegister(rpcs, rpcDuration, unitsOfWork, unitOfWorkDuration)

	return &Collector{
		registry:           registry,
		RPCs:               rpcs,
		RPCDuration:        rpcDuration,
		UnitsOfWork:        unitsOfWork,
		UnitOfWorkDuration: unitOfWorkDuration,
	}
}

// ObserveRPC records one engine call. Errors that carry no gRPC status are
// counted as Unknown.
func (c *Collector) ObserveRPC(method string, err error, elapsed time.Duration) {
	c.RPCs.WithLabelValues(method, status.Code(err).String()).Inc()
	c.RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveUnitOfWork implements graphdb.UnitOfWorkObserver.
func (c *Collector) ObserveUnitOfWork(outcome graphdb.Outcome, elapsed time.Duration) {
	c.UnitsOfWork.WithLabelValues(string(outcome)).Inc()
	c.UnitOfWorkDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// GetRegistry returns the Prometheus registry for this collector.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

var _ graphdb.UnitOfWorkObserver = (*Collector)(nil)
