package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb/graphdbtest"
	"github.com/ArystanIgen/master-thesis-files/internal/infrastructure/sparksee"
)

var overlayVars = []string{
	"ENV", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USERNAME", "DB_PASSWORD",
	"DB_CERTIFICATE_PATH", "DB_CALL_TIMEOUT", "DB_POLICY", "DB_MAX_ROWS",
	"LOG_LEVEL", "LOG_FORMAT", "USE_MONITORING", "OTEL_SERVICE_NAME",
}

// cli serves engine on a loopback port and writes a config directory pointing
// at it.
func cli(t *testing.T, engine *graphdbtest.Engine) string {
	t.Helper()
	for _, key := range overlayVars {
		t.Setenv(key, "")
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer(sparksee.ServerOptions()...)
	sparksee.RegisterEngine(srv, engine)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dir := t.TempDir()
	base := fmt.Sprintf(`database:
  host: 127.0.0.1
  port: %d
  call_timeout: 5s
  retry:
    max_attempts: 1
logging:
  level: error
  format: json
`, lis.Addr().(*net.TCPAddr).Port)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(base), 0o600))
	return dir
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	t.Cleanup(a.close)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", dir, "--env", "test"}, args...))
	err := root.Execute()
	return out.String(), err
}

func tspRow(nodeID int64, id, name string) graphdb.Row {
	return graphdb.Row{graphdb.OID(nodeID), graphdb.String(id), graphdb.String(name)}
}

func TestTSPGet(t *testing.T) {
	engine := graphdbtest.NewEngine().
		OnContains("'acme'", tspRow(7, "acme", "Acme Transport"))
	dir := cli(t, engine)

	out, err := execute(t, dir, "tsp", "get", "acme")
	require.NoError(t, err)
	assert.JSONEq(t, `{"node_id": 7, "id": "acme", "name": "Acme Transport"}`, out)
	assert.Equal(t, 1, engine.Count(graphdbtest.MethodCommitTx))

	out, err = execute(t, dir, "tsp", "get", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, `provider "missing" not found`)
}

func TestTSPList(t *testing.T) {
	engine := graphdbtest.NewEngine().
		OnContains("TSP_TYPE", tspRow(1, "a", "A"), tspRow(2, "b", "B"))
	dir := cli(t, engine)

	out, err := execute(t, dir, "tsp", "list", "--type", "rail")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"node_id": 1, "id": "a", "name": "A"}, {"node_id": 2, "id": "b", "name": "B"}]`, out)

	stmts := engine.Statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, graphdb.DialectCypher, stmts[0].Dialect)
	assert.Contains(t, stmts[0].Text, `name: 'rail'`)
}

func TestTSPRecommend(t *testing.T) {
	engine := graphdbtest.NewEngine().
		OnContains("RETURN DISTINCT", graphdb.Row{graphdb.OID(3), graphdb.String("x"), graphdb.String("X"), graphdb.String("rail")})
	dir := cli(t, engine)

	out, err := execute(t, dir, "tsp", "recommend", "--country", "Germany", "--country", "Austria", "--time-slot", "morning")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"node_id": 3, "id": "x", "name": "X", "type": "rail"}]`, out)

	text := engine.Statements()[0].Text
	assert.Contains(t, text, "country.name='Germany'")
	assert.Contains(t, text, "country.name='Austria'")
	assert.Contains(t, text, "time_slot.name='morning'")
	assert.NotContains(t, text, "tsp_type.name=")
}

func TestTSPHasDataRequirement(t *testing.T) {
	engine := graphdbtest.NewEngine()
	dir := cli(t, engine)

	out, err := execute(t, dir, "tsp", "has-data-requirement", "10", "20")
	require.NoError(t, err)
	assert.JSONEq(t, `{"has_data_requirement": false}`, out)
}

func TestTSPInvalidNodeID(t *testing.T) {
	engine := graphdbtest.NewEngine()
	dir := cli(t, engine)

	_, err := execute(t, dir, "tsp", "delete", "ten")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid node id "ten"`)
	assert.Zero(t, engine.Count(graphdbtest.MethodOpenSession))
}

func TestQuery(t *testing.T) {
	engine := graphdbtest.NewEngine().
		OnContains("COUNTRY", graphdb.Row{graphdb.String("Germany"), graphdb.Long(83)})
	dir := cli(t, engine)

	out, err := execute(t, dir, "query", "--dialect", "cypher", "MATCH (c:COUNTRY)", "RETURN c.name, c.population")
	require.NoError(t, err)
	assert.JSONEq(t, `[["Germany", 83]]`, out)

	stmts := engine.Statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, graphdb.Cypher("MATCH (c:COUNTRY) RETURN c.name, c.population"), stmts[0])

	_, err = execute(t, dir, "query", "--dialect", "sql", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "sql"`)
}

func TestQueryFailureRollsBack(t *testing.T) {
	engine := graphdbtest.NewEngine().
		OnContainsError("BROKEN", status.Error(codes.InvalidArgument, "syntax error"))
	dir := cli(t, engine)

	_, err := execute(t, dir, "query", "BROKEN")
	require.Error(t, err)
	assert.Equal(t, 1, engine.Count(graphdbtest.MethodRollbackTx))
	assert.Zero(t, engine.Count(graphdbtest.MethodCommitTx))
}

func TestProbe(t *testing.T) {
	engine := graphdbtest.NewEngine()
	dir := cli(t, engine)

	out, err := execute(t, dir, "probe", "--interval", "10ms", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "probe 1: ok")
	assert.Contains(t, out, "probe 2: ok")
	assert.Contains(t, out, "breaker closed")
	assert.Equal(t, 2, engine.Count(graphdbtest.MethodRunQuery))
}

func TestInvalidConfiguration(t *testing.T) {
	dir := cli(t, graphdbtest.NewEngine())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte("database:\n  max_rows: 0\n"), 0o600))

	_, err := execute(t, dir, "tsp", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
