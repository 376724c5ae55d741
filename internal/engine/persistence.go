package engine

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/index"
	"github.com/gcbaptista/go-inner-hits/internal/persistence"
	"github.com/gcbaptista/go-inner-hits/store"
)

const (
	dataDirPerm       = 0755
	settingsFile      = "settings.gob"
	invertedIndexFile = "inverted_index.gob"
	documentStoreFile = "document_store.gob"
	joinIndexFile     = "join_index.gob"
)

// loadIndexesFromDisk loads all indexes from the data directory. An index whose
// settings cannot be read is skipped; a missing or corrupted data file starts empty.
func (e *Engine) loadIndexesFromDisk() {
	e.logger.Info("loading indexes from disk", zap.String("data_dir", e.dataDir))

	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		e.logger.Warn("failed to read data directory, no indexes loaded", zap.String("data_dir", e.dataDir), zap.Error(err))
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		indexName := item.Name()
		indexPath := filepath.Join(e.dataDir, indexName)
		logger := e.logger.With(zap.String("index", indexName))

		var settings config.IndexSettings
		if err := persistence.LoadGob(filepath.Join(indexPath, settingsFile), &settings); err != nil {
			logger.Warn("failed to load settings, skipping index", zap.Error(err))
			continue
		}
		if settings.Name != indexName {
			logger.Warn("index name in settings does not match directory name, skipping index", zap.String("settings_name", settings.Name))
			continue
		}
		settings.ApplyDefaults()

		docStore := store.NewDocumentStore()
		if err := loadOrEmpty(logger, filepath.Join(indexPath, documentStoreFile), docStore); err != nil {
			docStore = store.NewDocumentStore()
		}
		invIndex := index.NewInvertedIndex(&settings)
		if err := loadOrEmpty(logger, filepath.Join(indexPath, invertedIndexFile), invIndex); err != nil {
			invIndex = index.NewInvertedIndex(&settings)
		}
		joinIndex := index.NewJoinIndex()
		if err := loadOrEmpty(logger, filepath.Join(indexPath, joinIndexFile), joinIndex); err != nil {
			joinIndex = index.NewJoinIndex()
		}

		instance, err := newIndexInstance(&settings, docStore, invIndex, joinIndex, e.searchOpts)
		if err != nil {
			logger.Error("failed to create services for loaded index, skipping", zap.Error(err))
			continue
		}

		e.indexes[indexName] = instance
		logger.Info("index loaded", zap.Int("documents", len(docStore.Docs)))
	}
}

// loadOrEmpty decodes path into target. A missing file is not an error; a corrupted
// one is logged and returned so the caller can start from an empty structure.
func loadOrEmpty(logger *zap.Logger, path string, target interface{}) error {
	err := persistence.LoadGob(path, target)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, os.ErrNotExist):
		logger.Info("data file not found, starting empty", zap.String("path", path))
		return nil
	default:
		logger.Warn("failed to load data file, starting empty", zap.String("path", path), zap.Error(err))
		return err
	}
}

// PersistIndexData writes the settings and data of an index to disk.
func (e *Engine) PersistIndexData(indexName string) error {
	instance, err := e.instance(indexName)
	if err != nil {
		return err
	}
	return e.persistUnsafe(indexName, instance)
}

// persistUnsafe writes an index instance to disk. Callers must not hold instance.mu
// for writing.
func (e *Engine) persistUnsafe(name string, instance *IndexInstance) error {
	indexPath := filepath.Join(e.dataDir, name)
	if err := os.MkdirAll(indexPath, dataDirPerm); err != nil {
		return fmt.Errorf("failed to create directory for index %s: %w", name, err)
	}

	instance.mu.RLock()
	defer instance.mu.RUnlock()

	if err := persistence.SaveGob(filepath.Join(indexPath, settingsFile), *instance.settings); err != nil {
		return fmt.Errorf("failed to save settings for index %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, invertedIndexFile), instance.InvertedIndex); err != nil {
		return fmt.Errorf("failed to save inverted index for %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, documentStoreFile), instance.DocumentStore); err != nil {
		return fmt.Errorf("failed to save document store for %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, joinIndexFile), instance.JoinIndex); err != nil {
		return fmt.Errorf("failed to save join index for %s: %w", name, err)
	}
	return nil
}
