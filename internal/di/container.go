package di

import (
	"go.uber.org/zap"

	"github.com/ArystanIgen/master-thesis-files/internal/config"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/infrastructure/observability"
	"github.com/ArystanIgen/master-thesis-files/internal/infrastructure/sparksee"
	"github.com/ArystanIgen/master-thesis-files/internal/repository"
)

// Container holds the wired graph client.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Collector *observability.Collector
	Tracing   *observability.TracerProvider
	Breaker   *sparksee.Breaker
	Factory   *graphdb.Factory
	TSPs      *repository.TSPRepository
	Catalog   *repository.CatalogRepository
}

func provideContainer(
	cfg *config.Config,
	logger *zap.Logger,
	collector *observability.Collector,
	tp *observability.TracerProvider,
	breaker *sparksee.Breaker,
	factory *graphdb.Factory,
	tsps *repository.TSPRepository,
	catalog *repository.CatalogRepository,
) *Container {
	return &Container{
		Config:    cfg,
		Logger:    logger,
		Collector: collector,
		Tracing:   tp,
		Breaker:   breaker,
		Factory:   factory,
		TSPs:      tsps,
		Catalog:   catalog,
	}
}

// Reconfigure points the factory at the endpoint described by cfg. Units of
// work already running keep their channel. The breaker, logger and
// observability components are kept.
func (c *Container) Reconfigure(cfg *config.Config) {
	if cfg.Database.Address() != c.Config.Database.Address() {
		c.Logger.Info("Graph endpoint changed",
			zap.String("from", c.Config.Database.Address()),
			zap.String("to", cfg.Database.Address()),
		)
	}
	dialer := sparksee.NewDialer(DialerOptions(cfg.Database), c.Breaker, c.Logger)
	c.Factory.SetConnector(instrument(cfg, dialer, c.Collector, c.Tracing))
	c.Config = cfg
}
