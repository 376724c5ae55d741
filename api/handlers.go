// Package api exposes the search engine over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	applog "github.com/gcbaptista/go-inner-hits/internal/logger"
	"github.com/gcbaptista/go-inner-hits/internal/metrics"
	"github.com/gcbaptista/go-inner-hits/services"
)

// API holds dependencies for API handlers, primarily the search engine manager.
type API struct {
	engine services.IndexManager
	logger *zap.Logger
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.IndexManager, logger *zap.Logger) *API {
	return &API{engine: engine, logger: applog.OrNop(logger)}
}

// SetupRoutes defines all the API routes for the search engine.
func SetupRoutes(router *gin.Engine, engine services.IndexManager, logger *zap.Logger) {
	apiHandler := NewAPI(engine, logger)

	router.Use(RequestIDMiddleware(), RequestLoggerMiddleware(apiHandler.logger), metrics.Middleware())

	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Index management routes
	indexRoutes := router.Group("/indexes")
	{
		indexRoutes.POST("", apiHandler.CreateIndexHandler)                              // Create a new index
		indexRoutes.GET("", apiHandler.ListIndexesHandler)                               // List all indexes
		indexRoutes.GET("/:indexName", apiHandler.GetIndexHandler)                       // Get index settings
		indexRoutes.DELETE("/:indexName", apiHandler.DeleteIndexHandler)                 // Delete an index
		indexRoutes.PATCH("/:indexName/settings", apiHandler.UpdateIndexSettingsHandler) // Update index settings
		indexRoutes.GET("/:indexName/stats", apiHandler.GetIndexStatsHandler)            // Get index statistics

		// Document management routes per index
		docRoutes := indexRoutes.Group("/:indexName/documents")
		{
			docRoutes.PUT("", apiHandler.AddDocumentsHandler)                           // Add/Update documents
			docRoutes.DELETE("", apiHandler.DeleteAllDocumentsHandler)                  // Delete all documents
			docRoutes.GET("/:docType/:documentId", apiHandler.GetDocumentHandler)       // Get specific document
			docRoutes.DELETE("/:docType/:documentId", apiHandler.DeleteDocumentHandler) // Delete specific document
		}

		// Search routes per index
		indexRoutes.POST("/:indexName/_search", apiHandler.SearchHandler)
		indexRoutes.POST("/:indexName/_msearch", apiHandler.MultiSearchHandler)
	}
}

// HealthCheckHandler reports liveness.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"indexes": len(api.engine.ListIndexes()),
	})
}
