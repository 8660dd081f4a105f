package sparksee

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

var (
	protoPackage = regexp.MustCompile(`^package (\w+);`)
	protoService = regexp.MustCompile(`^service (\w+)`)
	protoRPC     = regexp.MustCompile(`^\s*rpc (\w+)\(`)
	protoMessage = regexp.MustCompile(`^message (\w+)`)
	protoField   = regexp.MustCompile(`^\s*(?:repeated\s+)?\w+\s+(\w+)\s*=\s*(\d+);`)
)

type protoContract struct {
	service string
	rpcs    []string
	fields  map[string]int
}

func readContract(t *testing.T) protoContract {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "..", "api", "sparksee_server.proto"))
	require.NoError(t, err)
	defer f.Close()

	c := protoContract{fields: map[string]int{}}
	var pkg, message string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case protoPackage.MatchString(line):
			pkg = protoPackage.FindStringSubmatch(line)[1]
		case protoService.MatchString(line):
			c.service = pkg + "." + protoService.FindStringSubmatch(line)[1]
		case protoRPC.MatchString(line):
			c.rpcs = append(c.rpcs, protoRPC.FindStringSubmatch(line)[1])
		case protoMessage.MatchString(line):
			message = protoMessage.FindStringSubmatch(line)[1]
		case line == "}":
			message = ""
		case message != "" && protoField.MatchString(line):
			m := protoField.FindStringSubmatch(line)
			n, err := strconv.Atoi(m[2])
			require.NoError(t, err)
			c.fields[message+"."+m[1]] = n
		}
	}
	require.NoError(t, sc.Err())
	return c
}

func TestProtoContract_FieldNumbers(t *testing.T) {
	c := readContract(t)

	want := map[string]int{
		"Session.id":                  fieldSessionID,
		"Query.session":               fieldQuerySession,
		"Query.algebraQuery":          fieldQueryAlgebra,
		"Query.cypherQuery":           fieldQueryCypher,
		"QueryID.queryId":             fieldQueryIDValue,
		"ResultSetID.session":         fieldResultSetSession,
		"ResultSetID.queryId":         fieldResultSetQueryID,
		"ResultRowsArguments.id":      fieldRowsArgsID,
		"ResultRowsArguments.maxRows": fieldRowsArgsMaxRows,
		"ResultRows.rows":             fieldResultRowsRows,
		"Row.columnValues":            fieldRowValues,
		"ColumnValue.nullValue":       fieldValueNull,
		"ColumnValue.intValue":        fieldValueInt,
		"ColumnValue.longValue":       fieldValueLong,
		"ColumnValue.stringValue":     fieldValueString,
		"ColumnValue.timestampValue":  fieldValueTimestamp,
		"ColumnValue.doubleValue":     fieldValueDouble,
		"ColumnValue.boolValue":       fieldValueBool,
		"ColumnValue.oidValue":        fieldValueOID,
		"Timestamp.seconds":           fieldTimestampSeconds,
		"Timestamp.nanos":             fieldTimestampNanos,
	}
	assert.Equal(t, want, c.fields)
}

func TestProtoContract_Methods(t *testing.T) {
	c := readContract(t)
	assert.Equal(t, ServiceName, c.service)

	methods := make([]string, len(c.rpcs))
	for i, rpc := range c.rpcs {
		methods[i] = "/" + c.service + "/" + rpc
	}
	assert.Equal(t, []string{
		MethodNewSession,
		MethodBeginTx,
		MethodRunQuery,
		MethodGetResultRows,
		MethodCloseQuery,
		MethodCommitTx,
		MethodRollbackTx,
		MethodEndSession,
	}, methods)
}

func TestCodec_LeavesDefaultRegistered(t *testing.T) {
	// Codec is forced per connection, so the process-wide "proto" entry is
	// still the protobuf codec other gRPC clients rely on.
	assert.NotNil(t, encoding.GetCodecV2(codecName))
	assert.Nil(t, encoding.GetCodec(codecName))
}
