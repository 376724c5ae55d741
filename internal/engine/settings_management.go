package engine

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/indexing"
)

// UpdateIndexSettings replaces the settings of an index. When the change affects how
// documents are analysed or joined, every stored document is reindexed; if any of them
// no longer validates, the update is rolled back and the index is left untouched.
func (e *Engine) UpdateIndexSettings(name string, newSettings config.IndexSettings) error {
	instance, err := e.instance(name)
	if err != nil {
		return err
	}
	if newSettings.Name != "" && newSettings.Name != name {
		return errors.NewValidationError("name", fmt.Sprintf("cannot change index name from '%s' to '%s' during settings update", name, newSettings.Name))
	}
	newSettings.Name = name
	newSettings.ApplyDefaults()
	if err := validateSettings(&newSettings); err != nil {
		return err
	}

	instance.mu.Lock()
	oldSettings := *instance.settings
	*instance.settings = newSettings
	reindex := requiresReindexing(oldSettings, newSettings)
	if reindex {
		if err := instance.indexer.BulkReindex(indexing.DefaultBulkIndexingConfig()); err != nil {
			*instance.settings = oldSettings
			instance.mu.Unlock()
			return fmt.Errorf("settings update for index '%s' rolled back: %w", name, err)
		}
	}
	instance.mu.Unlock()
	e.cache.Clear()

	e.logger.Info("index settings updated", zap.String("index", name), zap.Bool("reindexed", reindex))
	return e.PersistIndexData(name)
}

// requiresReindexing reports whether stored postings, nested units or joins depend on
// the changed settings.
func requiresReindexing(oldSettings, newSettings config.IndexSettings) bool {
	return !slices.Equal(oldSettings.SearchableFields, newSettings.SearchableFields) ||
		!slices.Equal(oldSettings.NestedPaths, newSettings.NestedPaths) ||
		!maps.Equal(oldSettings.ParentTypes, newSettings.ParentTypes) ||
		oldSettings.DefaultType != newSettings.DefaultType
}
