package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applog "github.com/gcbaptista/go-inner-hits/internal/logger"
	"github.com/gcbaptista/go-inner-hits/services"
)

// SearchHandler handles search requests to an index.
// Request Body: services.SearchQuery
func (api *API) SearchHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}

	var req services.SearchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	page, pageSize, pagination := ValidatePagination(req.Page, req.PageSize)
	if pagination.HasErrors() {
		SendValidationError(c, pagination)
		return
	}
	req.Page, req.PageSize = page, pageSize

	results, err := indexAccessor.Search(c.Request.Context(), req)
	if err != nil {
		SendSearchError(c, indexName, err)
		return
	}

	if len(results.InnerHitFailures) > 0 || results.TimedOut {
		applog.FromContext(c.Request.Context()).Info("search returned partial inner hits",
			zap.String("index", indexName),
			zap.String("query_id", results.QueryId),
			zap.Int("failures", len(results.InnerHitFailures)),
			zap.Bool("timed_out", results.TimedOut))
	}

	c.JSON(http.StatusOK, results)
}

// MultiSearchHandler runs several named searches against an index. A query that fails
// is reported under its name in "errors"; the others still return.
// Request Body: services.MultiSearchQuery
func (api *API) MultiSearchHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}

	var req services.MultiSearchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Queries) == 0 {
		result := &ValidationResult{Valid: true}
		result.AddError("queries", "At least one query is required")
		SendValidationError(c, result)
		return
	}

	page, pageSize, pagination := ValidatePagination(req.Page, req.PageSize)
	if pagination.HasErrors() {
		SendValidationError(c, pagination)
		return
	}
	req.Page, req.PageSize = page, pageSize

	results, err := indexAccessor.MultiSearch(c.Request.Context(), req)
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, results)
}
