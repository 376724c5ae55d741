package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/indexes/:indexName", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return r
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/indexes/articles", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/indexes/:indexName", "200"))
	assert.GreaterOrEqual(t, val, 1.0)
	assert.Positive(t, testutil.CollectAndCount(httpRequestDuration))
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		path   string
		label  string
		status string
	}{
		{"/missing", "/missing", "404"},
		{"/nowhere", "unknown", "404"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.label, tc.status))
			assert.GreaterOrEqual(t, val, 1.0)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "unknown", normalizePath(""))
	assert.Equal(t, "/health", normalizePath("/health"))
}
