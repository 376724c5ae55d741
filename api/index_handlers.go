package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-inner-hits/config"
	internalErrors "github.com/gcbaptista/go-inner-hits/internal/errors"
)

// CreateIndexHandler handles the request to create a new index.
// Request Body: config.IndexSettings
func (api *API) CreateIndexHandler(c *gin.Context) {
	var settings config.IndexSettings

	if result := ValidateJSONBinding(c, &settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if result := ValidateIndexSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.CreateIndex(settings); err != nil {
		switch {
		case errors.Is(err, internalErrors.ErrIndexAlreadyExists):
			SendIndexExistsError(c, settings.Name)
		case errors.Is(err, internalErrors.ErrInvalidInput):
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		default:
			SendIndexingError(c, "create index", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Index '" + settings.Name + "' created successfully"})
}

// ListIndexesHandler lists all available indexes.
func (api *API) ListIndexesHandler(c *gin.Context) {
	names := api.engine.ListIndexes()
	c.JSON(http.StatusOK, gin.H{"indexes": names, "count": len(names)})
}

// GetIndexHandler retrieves the settings of a specific index.
func (api *API) GetIndexHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}
	c.JSON(http.StatusOK, indexAccessor.Settings())
}

// DeleteIndexHandler handles deleting an index.
func (api *API) DeleteIndexHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	if err := api.engine.DeleteIndex(indexName); err != nil {
		if errors.Is(err, internalErrors.ErrIndexNotFound) {
			SendIndexNotFoundError(c, indexName)
			return
		}
		SendIndexingError(c, "delete index", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Index '" + indexName + "' deleted successfully"})
}

// UpdateIndexSettingsHandler replaces the settings of an index. Changes to nested
// paths, parent types, searchable fields or the default type reindex every document.
// Request Body: config.IndexSettings
func (api *API) UpdateIndexSettingsHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	var settings config.IndexSettings
	if result := ValidateJSONBinding(c, &settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.UpdateIndexSettings(indexName, settings); err != nil {
		switch {
		case errors.Is(err, internalErrors.ErrIndexNotFound):
			SendIndexNotFoundError(c, indexName)
		case errors.Is(err, internalErrors.ErrInvalidInput):
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		default:
			SendIndexingError(c, "update settings", err)
		}
		return
	}

	updated, err := api.engine.GetIndexSettings(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings for index '" + indexName + "' updated successfully",
		"settings": updated,
	})
}

// GetIndexStatsHandler returns document counts and the declared mapping of an index.
func (api *API) GetIndexStatsHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}

	settings := indexAccessor.Settings()
	c.JSON(http.StatusOK, gin.H{
		"name":           settings.Name,
		"document_count": indexAccessor.DocumentCount(),
		"generation":     indexAccessor.Generation(),
		"nested_paths":   settings.NestedPaths,
		"parent_types":   settings.ParentTypes,
	})
}
