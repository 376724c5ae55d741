package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	internalErrors "github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/indexing"
	"github.com/gcbaptista/go-inner-hits/model"
)

// bulkThreshold is the batch size from which documents are analysed in parallel.
const bulkThreshold = 500

// bulkIndexer is implemented by index accessors that support parallel analysis.
type bulkIndexer interface {
	BulkAddDocuments(docs []model.Document, cfg indexing.BulkIndexingConfig) error
}

// AddDocumentsHandler handles adding/updating documents in an index.
// Request Body: a document object or an array of documents
func (api *API) AddDocumentsHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}

	var rawData interface{}
	if err := c.ShouldBindJSON(&rawData); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	var docs []model.Document
	switch data := rawData.(type) {
	case []interface{}:
		docs = make([]model.Document, len(data))
		for i, item := range data {
			docMap, isMap := item.(map[string]interface{})
			if !isMap {
				SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, fmt.Sprintf("Document at index %d is not a valid object", i))
				return
			}
			docs[i] = docMap
		}
	case map[string]interface{}:
		docs = []model.Document{data}
	default:
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "Invalid request body. Expecting a document object or an array of documents")
		return
	}

	if result := ValidateDocuments(docs); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if bulk, ok := indexAccessor.(bulkIndexer); ok && len(docs) >= bulkThreshold {
		err = bulk.BulkAddDocuments(docs, indexing.DefaultBulkIndexingConfig())
	} else {
		err = indexAccessor.AddDocuments(docs)
	}
	if err != nil {
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendIndexingError(c, "add documents", err)
		return
	}

	if !api.persist(c, indexName) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("%d document(s) added/updated in index '%s'", len(docs), indexName),
		"document_count": len(docs),
	})
}

// DeleteAllDocumentsHandler handles the request to delete all documents from an index.
func (api *API) DeleteAllDocumentsHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}

	if err := indexAccessor.DeleteAllDocuments(); err != nil {
		SendIndexingError(c, "delete all documents", err)
		return
	}

	if !api.persist(c, indexName) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All documents deleted from index '" + indexName + "'"})
}

// GetDocumentHandler retrieves a document by type and ID.
func (api *API) GetDocumentHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	docType := c.Param("docType")
	documentID := c.Param("documentId")

	if result := ValidateDocumentID(documentID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}

	doc, err := indexAccessor.GetDocument(docType, documentID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrDocumentNotFound) {
			SendDocumentNotFoundError(c, docType+"/"+documentID, indexName)
			return
		}
		SendInternalError(c, "get document", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteDocumentHandler deletes a document by type and ID. Children of a deleted
// parent are kept.
func (api *API) DeleteDocumentHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	docType := c.Param("docType")
	documentID := c.Param("documentId")

	if result := ValidateDocumentID(documentID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		sendIndexLookupError(c, indexName, err)
		return
	}

	if err := indexAccessor.DeleteDocument(docType, documentID); err != nil {
		if errors.Is(err, internalErrors.ErrDocumentNotFound) {
			SendDocumentNotFoundError(c, docType+"/"+documentID, indexName)
			return
		}
		SendIndexingError(c, "delete document", err)
		return
	}

	if !api.persist(c, indexName) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document '" + docType + "/" + documentID + "' deleted from index '" + indexName + "'"})
}

// persist writes the index to disk after a mutation. It answers the request itself
// when persistence fails.
func (api *API) persist(c *gin.Context, indexName string) bool {
	if err := api.engine.PersistIndexData(indexName); err != nil {
		api.logger.Error("failed to persist index", zap.String("index", indexName), zap.Error(err))
		SendPersistenceError(c, indexName, err)
		return false
	}
	return true
}
