// Package engine manages the lifecycle of indexes: creation, settings updates,
// persistence and access to the per-index indexing and search services.
package engine

import (
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/innerhits"
	applog "github.com/gcbaptista/go-inner-hits/internal/logger"
	"github.com/gcbaptista/go-inner-hits/internal/search"
	"github.com/gcbaptista/go-inner-hits/services"
)

// Engine manages multiple search indexes.
// It implements the services.IndexManager interface.
type Engine struct {
	mu         sync.RWMutex
	indexes    map[string]*IndexInstance
	dataDir    string
	searchOpts search.Options
	cache      *innerhits.ResolutionCache
	logger     *zap.Logger
}

// NewEngine creates a new engine and loads the indexes persisted under
// cfg.Storage.DataDir.
func NewEngine(cfg config.ServerConfig, logger *zap.Logger) (*Engine, error) {
	logger = applog.OrNop(logger)
	cache, err := innerhits.NewResolutionCache(cfg.Cache.ResolutionMaxCost, logger.Named("resolution_cache"))
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		indexes: make(map[string]*IndexInstance),
		dataDir: cfg.Storage.DataDir,
		searchOpts: search.Options{
			InnerHitsWorkers: cfg.Search.InnerHitsWorkers,
			Timeout:          time.Duration(cfg.Search.TimeoutMs) * time.Millisecond,
			Cache:            cache,
			Logger:           logger,
		},
		cache:  cache,
		logger: logger,
	}
	if err := os.MkdirAll(eng.dataDir, dataDirPerm); err != nil {
		logger.Warn("could not create data directory, persistence disabled for new indexes",
			zap.String("data_dir", eng.dataDir), zap.Error(err))
	}
	eng.loadIndexesFromDisk()
	return eng, nil
}

// Close releases the resolution cache.
func (e *Engine) Close() {
	e.cache.Close()
}

// GetIndex retrieves an index by its name.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	instance, err := e.instance(name)
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func (e *Engine) instance(name string) (*IndexInstance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}

// GetIndexSettings retrieves a copy of the settings of an index.
func (e *Engine) GetIndexSettings(name string) (config.IndexSettings, error) {
	instance, err := e.instance(name)
	if err != nil {
		return config.IndexSettings{}, err
	}
	return instance.Settings(), nil
}

// ListIndexes returns the names of all loaded indexes in sorted order.
func (e *Engine) ListIndexes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateSettings(settings *config.IndexSettings) error {
	if settings.Name == "" {
		return errors.NewValidationError("name", "index name cannot be empty")
	}
	if conflicts := settings.ValidateFieldNames(); len(conflicts) > 0 {
		return errors.NewValidationError("settings", strings.Join(conflicts, "; "))
	}
	return nil
}
