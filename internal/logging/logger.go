// Package logging builds the zap logger shared by every component and adds
// context and error fields to it.
package logging

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ArystanIgen/master-thesis-files/internal/config"
	"github.com/ArystanIgen/master-thesis-files/internal/domain/tsp"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/repository"
)

// New creates the application logger. Production and staging get a sampled
// JSON logger; other environments a colored console logger.
func New(env config.Environment, cfg config.Logging) (*zap.Logger, error) {
	var zcfg zap.Config
	if env == config.Production || env == config.Staging {
		zcfg = zap.NewProductionConfig()
		zcfg.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	switch cfg.Format {
	case "json":
		zcfg.Encoding = "json"
		zcfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case "console":
		zcfg.Encoding = "console"
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	// stdout carries command output.
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	return zcfg.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
}

type contextKey struct{}

var operationIDKey contextKey

// WithOperationID attaches an operation id to ctx.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey, id)
}

// OperationID returns the operation id attached to ctx, if any.
func OperationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(operationIDKey).(string)
	return id, ok && id != ""
}

// WithContext returns logger with the operation id and trace ids found in ctx.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	var fields []zap.Field

	if id, ok := OperationID(ctx); ok {
		fields = append(fields, zap.String("operation_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// ErrorFields classifies err into structured fields.
func ErrorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}

	var (
		connErr    *graphdb.ConnectionError
		sessionErr *graphdb.SessionError
		queryErr   *graphdb.QueryError
	)
	switch {
	case errors.As(err, &connErr):
		fields = append(fields, zap.String("error_kind", "connection"), zap.String("failed_operation", connErr.Op))
	case errors.As(err, &sessionErr):
		fields = append(fields, zap.String("error_kind", "session"), zap.String("failed_operation", sessionErr.Op))
	case errors.As(err, &queryErr):
		fields = append(fields, zap.String("error_kind", "query"), zap.String("failed_operation", queryErr.Op))
		if queryErr.Dialect != "" {
			fields = append(fields, zap.String("dialect", string(queryErr.Dialect)))
		}
	case errors.Is(err, tsp.ErrInvalid):
		fields = append(fields, zap.String("error_kind", "invalid_input"))
	case repository.IsInvalidQuery(err):
		fields = append(fields, zap.String("error_kind", "invalid_query"))
	case repository.IsUnexpectedResult(err):
		fields = append(fields, zap.String("error_kind", "unexpected_result"))
	}
	return fields
}

// LogError logs err at a level chosen from its kind: caller mistakes are
// warnings, everything else is an error.
func LogError(logger *zap.Logger, err error, message string, fields ...zap.Field) {
	if err == nil {
		return
	}
	fields = append(fields, ErrorFields(err)...)
	if repository.IsInvalidQuery(err) || errors.Is(err, tsp.ErrInvalid) {
		logger.Warn(message, fields...)
		return
	}
	logger.Error(message, fields...)
}
