package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/channel-engine/internal/analyzer"
	"github.com/anime-shed/channel-engine/internal/config"
	"github.com/anime-shed/channel-engine/internal/factory"
	"github.com/anime-shed/channel-engine/internal/logger"
	"github.com/anime-shed/channel-engine/internal/observer"
	"github.com/anime-shed/channel-engine/internal/repository"
	"github.com/anime-shed/channel-engine/internal/service"
	"github.com/anime-shed/channel-engine/internal/transport"
	"github.com/anime-shed/channel-engine/internal/ws"
	"github.com/anime-shed/channel-engine/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	engine          analyzer.Engine
	channelRepo     repository.ChannelRepository
	events          *observer.EventPublisher
	metrics         *observer.MetricsObserver
	hub             *ws.Hub
	decisionService service.DecisionService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Build dependency graph
	components := factory.NewComponentFactory(cfg)
	engine, err := components.EngineFactory.CreateEngine(factory.StandardProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	fetchers := components.StorageFactory.Fetchers()
	channelRepo := repository.NewSourceChannelRepository(fetchers, validation.NewSourceValidator())

	hub := ws.NewHub()
	go hub.Run()

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)
	events.Subscribe(observer.NewBroadcastObserver(hub))

	decisionService := service.NewDecisionService(channelRepo, engine, events, service.Defaults{
		RegionWidth:  cfg.DefaultRegionWidth,
		RegionHeight: cfg.DefaultRegionHeight,
		Policy:       cfg.DefaultReferencePolicy,
		Palette:      cfg.DefaultPalette,
	})

	handler := transport.NewHandler(transport.Dependencies{
		Service: decisionService,
		Metrics: metrics,
		Pool:    engine.PoolStats,
		Hub:     hub,
		Config:  cfg,
	})

	logger.WithComponent("container").WithField("source_backends", len(fetchers)).Info("Dependencies initialized")

	return &Container{
		config:          cfg,
		engine:          engine,
		channelRepo:     channelRepo,
		events:          events,
		metrics:         metrics,
		hub:             hub,
		decisionService: decisionService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close drains pending events and releases the engine and event hub
func (c *Container) Close() error {
	c.events.Wait()
	c.hub.Stop()
	return c.engine.Close()
}
