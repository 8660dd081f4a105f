package di_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/ArystanIgen/master-thesis-files/internal/config"
	"github.com/ArystanIgen/master-thesis-files/internal/di"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb/graphdbtest"
	"github.com/ArystanIgen/master-thesis-files/internal/infrastructure/sparksee"
)

// startEngine serves engine over TCP on a loopback port and returns the port.
func startEngine(t *testing.T, engine graphdb.Engine) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer(sparksee.ServerOptions()...)
	sparksee.RegisterEngine(srv, engine)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis.Addr().(*net.TCPAddr).Port
}

func testConfig(port int) *config.Config {
	return &config.Config{
		Environment: config.Test,
		Database: config.Database{
			Host:        "127.0.0.1",
			Port:        port,
			Name:        "Sign-Air-Discovery",
			MaxRows:     10,
			CallTimeout: 5 * time.Second,
			Policy:      "rollback_on_error",
			Retry: config.Retry{
				MaxAttempts:          5,
				InitialBackoff:       100 * time.Millisecond,
				MaxBackoff:           time.Second,
				BackoffMultiplier:    2,
				RetryableStatusCodes: []string{"UNAVAILABLE"},
			},
		},
		Breaker: config.Breaker{Enabled: true, MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 0.8, MinRequests: 5},
		Logging: config.Logging{Level: "error", Format: "json"},
		Metrics: config.Metrics{Enabled: true, Namespace: "test"},
	}
}

func scan(ctx context.Context, sm *graphdb.SessionManager) error {
	_, err := sm.ExecuteQuery(ctx, graphdb.Algebra("GRAPH::SCAN('TSP')"), 1)
	return err
}

func TestInitializeContainer_EndToEnd(t *testing.T) {
	engine := graphdbtest.NewEngine()
	cfg := testConfig(startEngine(t, engine))

	c, cleanup, err := di.InitializeContainer(cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, c.Breaker)
	assert.Equal(t, graphdb.RollbackOnError, c.Factory.Policy())

	require.NoError(t, c.Factory.Run(context.Background(), scan))

	assert.Equal(t, 1, engine.Count(graphdbtest.MethodRunQuery))
	assert.Equal(t, 1, engine.Count(graphdbtest.MethodCommitTx))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Collector.UnitsOfWork.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Collector.RPCs.WithLabelValues("RunQuery", "OK")))
}

func TestContainer_Reconfigure(t *testing.T) {
	first := graphdbtest.NewEngine()
	second := graphdbtest.NewEngine()
	cfg := testConfig(startEngine(t, first))

	c, cleanup, err := di.InitializeContainer(cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, c.Factory.Run(context.Background(), scan))

	next := testConfig(startEngine(t, second))
	c.Reconfigure(next)
	require.NoError(t, c.Factory.Run(context.Background(), scan))

	assert.Equal(t, 1, first.Count(graphdbtest.MethodRunQuery))
	assert.Equal(t, 1, second.Count(graphdbtest.MethodRunQuery))
	assert.Same(t, next, c.Config)
}

func TestContainer_ReconfigureEnablesMetrics(t *testing.T) {
	engine := graphdbtest.NewEngine()
	port := startEngine(t, engine)
	cfg := testConfig(port)
	cfg.Metrics.Enabled = false

	c, cleanup, err := di.InitializeContainer(cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, c.Factory.Run(context.Background(), scan))
	assert.Zero(t, testutil.ToFloat64(c.Collector.RPCs.WithLabelValues("RunQuery", "OK")))

	c.Reconfigure(testConfig(port))
	require.NoError(t, c.Factory.Run(context.Background(), scan))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Collector.RPCs.WithLabelValues("RunQuery", "OK")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Collector.UnitsOfWork.WithLabelValues("committed")))
}

func TestContainer_ReconfigureDisablesMetrics(t *testing.T) {
	engine := graphdbtest.NewEngine()
	port := startEngine(t, engine)

	c, cleanup, err := di.InitializeContainer(testConfig(port))
	require.NoError(t, err)
	defer cleanup()

	next := testConfig(port)
	next.Metrics.Enabled = false
	c.Reconfigure(next)
	require.NoError(t, c.Factory.Run(context.Background(), scan))

	assert.Zero(t, testutil.ToFloat64(c.Collector.RPCs.WithLabelValues("RunQuery", "OK")))
	assert.Equal(t, 1, engine.Count(graphdbtest.MethodRunQuery))
}

func TestInitializeContainer_Options(t *testing.T) {
	cfg := testConfig(1)
	cfg.Breaker = config.Breaker{}
	cfg.Database.Policy = "always_commit"

	c, cleanup, err := di.InitializeContainer(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, c.Breaker)
	assert.Equal(t, graphdb.AlwaysCommit, c.Factory.Policy())

	cfg = testConfig(1)
	cfg.Database.Policy = "sometimes"
	_, _, err = di.InitializeContainer(cfg)
	assert.Error(t, err)
}

func TestDialerOptions(t *testing.T) {
	opts := di.DialerOptions(testConfig(6000).Database)
	assert.Equal(t, "127.0.0.1:6000", opts.Address)
	assert.Equal(t, sparksee.DefaultRetryPolicy(), opts.Retry)
	assert.Equal(t, 5*time.Second, opts.CallTimeout)
}
