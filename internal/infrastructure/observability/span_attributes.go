package observability

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// Attribute keys set on engine spans.
const (
	AttrDBSystem   = attribute.Key("db.system")
	AttrSessionID  = attribute.Key("graph.session.id")
	AttrQueryID    = attribute.Key("graph.query.id")
	AttrDialect    = attribute.Key("graph.dialect")
	AttrStatement  = attribute.Key("db.statement")
	AttrMaxRows    = attribute.Key("graph.max_rows")
	AttrRowCount   = attribute.Key("graph.row_count")
	maxStatementLn = 1024
)

func sessionAttributes(s graphdb.SessionHandle) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrDBSystem.String("sparksee"),
		AttrSessionID.Int64(s.ID),
	}
}

// statementAttributes truncates long statement text; algebra LET blocks for
// bulk inserts can get large.
func statementAttributes(s graphdb.SessionHandle, stmt graphdb.Statement) []attribute.KeyValue {
	text := stmt.Text
	if len(text) > maxStatementLn {
		text = text[:maxStatementLn]
	}
	return append(sessionAttributes(s),
		AttrDialect.String(string(stmt.Dialect.OrDefault())),
		AttrStatement.String(text),
	)
}

func queryAttributes(s graphdb.SessionHandle, q graphdb.QueryID) []attribute.KeyValue {
	return append(sessionAttributes(s), AttrQueryID.Int64(int64(q)))
}
