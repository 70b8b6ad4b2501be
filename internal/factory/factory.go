package factory

import (
	"fmt"

	"github.com/anime-shed/channel-engine/internal/analyzer"
	"github.com/anime-shed/channel-engine/internal/config"
	"github.com/anime-shed/channel-engine/internal/logger"
	"github.com/anime-shed/channel-engine/internal/storage"
	"github.com/anime-shed/channel-engine/pkg/validation"
)

// EngineProfile represents different tunings of the decision engine
type EngineProfile string

const (
	// StandardProfile uses the configured tunables
	StandardProfile EngineProfile = "standard"
	// PreciseProfile samples every background pixel
	PreciseProfile EngineProfile = "precise"
	// FastProfile trades background precision for speed
	FastProfile EngineProfile = "fast"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// EngineFactory creates decision engines
type EngineFactory interface {
	CreateEngine(profile EngineProfile) (analyzer.Engine, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
	// Fetchers returns every backend the configuration enables, keyed by source kind
	Fetchers() map[validation.SourceKind]storage.ImageFetcher
}

// engineFactory implements EngineFactory
type engineFactory struct {
	cfg *config.Config
}

// NewEngineFactory creates a new engine factory
func NewEngineFactory(cfg *config.Config) EngineFactory {
	return &engineFactory{cfg: cfg}
}

// CreateEngine creates an engine based on the specified profile
func (f *engineFactory) CreateEngine(profile EngineProfile) (analyzer.Engine, error) {
	var opts analyzer.EngineOptions
	switch profile {
	case StandardProfile:
		opts = f.cfg.EngineOptions()
	case PreciseProfile:
		opts = analyzer.PreciseOptions().WithMaxWorkers(f.cfg.MaxWorkers)
	case FastProfile:
		opts = analyzer.FastOptions().WithMaxWorkers(f.cfg.MaxWorkers)
	default:
		return nil, fmt.Errorf("unsupported engine profile: %s", profile)
	}
	return analyzer.NewEngine(opts)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.SourceFetchTimeout), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
	case LocalStorage:
		if f.cfg.LocalSourceRoot == "" {
			return nil, fmt.Errorf("local storage requires LOCAL_SOURCE_ROOT")
		}
		fetcher, err := storage.NewLocalImageFetcher(f.cfg.LocalSourceRoot)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// Fetchers builds the enabled backends. Misconfigured optional backends are
// logged and left out so their sources are rejected per request.
func (f *storageFactory) Fetchers() map[validation.SourceKind]storage.ImageFetcher {
	fetchers := make(map[validation.SourceKind]storage.ImageFetcher, 3)
	log := logger.WithComponent("factory")

	if fetcher, err := f.CreateStorage(HTTPStorage); err == nil {
		fetchers[validation.SourceHTTP] = fetcher
	}
	if f.cfg.AzureEnabled() {
		fetcher, err := f.CreateStorage(AzureStorage)
		if err != nil {
			log.WithError(err).Warn("Azure blob sources disabled")
		} else {
			fetchers[validation.SourceBlob] = fetcher
		}
	}
	if f.cfg.LocalSourceRoot != "" {
		fetcher, err := f.CreateStorage(LocalStorage)
		if err != nil {
			log.WithError(err).Warn("Local sources disabled")
		} else {
			fetchers[validation.SourceLocal] = fetcher
		}
	}
	return fetchers
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	EngineFactory  EngineFactory
	StorageFactory StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		EngineFactory:  NewEngineFactory(cfg),
		StorageFactory: NewStorageFactory(cfg),
	}
}
