// Package di wires the graph client together with Google Wire.
package di

import (
	"context"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/ArystanIgen/master-thesis-files/internal/config"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/infrastructure/observability"
	"github.com/ArystanIgen/master-thesis-files/internal/infrastructure/sparksee"
	"github.com/ArystanIgen/master-thesis-files/internal/logging"
	"github.com/ArystanIgen/master-thesis-files/internal/repository"
)

// SuperSet combines all provider sets for the complete client.
var SuperSet = wire.NewSet(
	ConfigProviders,
	InfrastructureProviders,
	GraphProviders,
	RepositoryProviders,
	provideContainer,
)

// ConfigProviders provides configuration-derived dependencies.
var ConfigProviders = wire.NewSet(
	provideLogger,
	provideEnvironment,
)

// InfrastructureProviders provides the transport and observability components.
var InfrastructureProviders = wire.NewSet(
	provideCollector,
	provideTracerProvider,
	provideBreaker,
	provideDialer,
	provideConnector,
)

// GraphProviders provides the unit-of-work factory.
var GraphProviders = wire.NewSet(
	provideFactory,
)

// RepositoryProviders provides the repositories.
var RepositoryProviders = wire.NewSet(
	provideTSPRepository,
	provideCatalogRepository,
)

// ============================================================================
// CONFIGURATION PROVIDERS
// ============================================================================

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logging.New(cfg.Environment, cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }
	return logger, cleanup, nil
}

func provideEnvironment(cfg *config.Config) config.Environment {
	return cfg.Environment
}

// ============================================================================
// INFRASTRUCTURE PROVIDERS
// ============================================================================

// provideCollector always returns a collector; with metrics disabled nothing
// scrapes its registry.
func provideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

func provideTracerProvider(cfg *config.Config, env config.Environment) (*observability.TracerProvider, func()) {
	tp := observability.NewTracerProvider(observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(env),
		SampleRate:  cfg.Tracing.SampleRate,
	})
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}
	return tp, cleanup
}

// provideBreaker returns nil when the breaker is disabled.
func provideBreaker(cfg *config.Config, logger *zap.Logger) *sparksee.Breaker {
	if !cfg.Breaker.Enabled {
		return nil
	}
	return sparksee.NewBreaker(BreakerSettings(cfg.Breaker), logger)
}

func provideDialer(cfg *config.Config, breaker *sparksee.Breaker, logger *zap.Logger) *sparksee.Dialer {
	return sparksee.NewDialer(DialerOptions(cfg.Database), breaker, logger)
}

func provideConnector(cfg *config.Config, dialer *sparksee.Dialer, collector *observability.Collector, tp *observability.TracerProvider) graphdb.Connector {
	return instrument(cfg, dialer, collector, tp)
}

// instrument decorates connector when metrics or tracing is on.
func instrument(cfg *config.Config, connector graphdb.Connector, collector *observability.Collector, tp *observability.TracerProvider) graphdb.Connector {
	if !cfg.Metrics.Enabled && !cfg.Tracing.Enabled {
		return connector
	}
	return observability.InstrumentConnector(connector, collector, tp.Tracer())
}

// ============================================================================
// GRAPH PROVIDERS
// ============================================================================

func provideFactory(cfg *config.Config, connector graphdb.Connector, collector *observability.Collector, logger *zap.Logger) (*graphdb.Factory, error) {
	policy, err := graphdb.ParsePolicy(cfg.Database.Policy)
	if err != nil {
		return nil, err
	}
	return graphdb.NewFactory(connector,
		graphdb.WithLogger(logger),
		graphdb.WithPolicy(policy),
		graphdb.WithObserver(collector),
		graphdb.WithParallelism(cfg.Database.Parallelism),
	), nil
}

// ============================================================================
// REPOSITORY PROVIDERS
// ============================================================================

func provideTSPRepository(logger *zap.Logger) *repository.TSPRepository {
	return repository.NewTSPRepository(logger)
}

func provideCatalogRepository(logger *zap.Logger) *repository.CatalogRepository {
	return repository.NewCatalogRepository(logger)
}

// ============================================================================
// MAPPING HELPERS
// ============================================================================

// DialerOptions maps database settings onto transport options.
func DialerOptions(db config.Database) sparksee.Options {
	return sparksee.Options{
		Address:            db.Address(),
		CertificatePath:    db.CertificatePath,
		ServerNameOverride: db.ServerNameOverride,
		CallTimeout:        db.CallTimeout,
		Retry: sparksee.RetryPolicy{
			MaxAttempts:          db.Retry.MaxAttempts,
			InitialBackoff:       db.Retry.InitialBackoff,
			MaxBackoff:           db.Retry.MaxBackoff,
			BackoffMultiplier:    db.Retry.BackoffMultiplier,
			RetryableStatusCodes: db.Retry.RetryableStatusCodes,
		},
	}
}

// BreakerSettings maps breaker settings onto the transport breaker.
func BreakerSettings(b config.Breaker) sparksee.BreakerSettings {
	return sparksee.BreakerSettings{
		Name:             "sparksee",
		MaxRequests:      b.MaxRequests,
		Interval:         b.Interval,
		Timeout:          b.Timeout,
		FailureThreshold: b.FailureThreshold,
		MinRequests:      b.MinRequests,
	}
}
