package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func meteredCatalogRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/products/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.POST("/orders", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"success": true})
	})
	router.GET("/missing-product", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
	})
	return router, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_RequestCounter(t *testing.T) {
	router, reader := meteredCatalogRouter(t)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/products/42", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	m := collectMetric(t, reader, "http_server_request_total")
	require.NotNil(t, m, "request counter not recorded")

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestHTTPMetrics_RoutePatternNotRawPath(t *testing.T) {
	router, reader := meteredCatalogRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/products/42", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/products/99", nil))

	m := collectMetric(t, reader, "http_server_request_total")
	require.NotNil(t, m)

	// Both IDs collapse onto one low-cardinality route attribute
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	route, ok := sum.DataPoints[0].Attributes.Value("http.route")
	require.True(t, ok)
	assert.Equal(t, "/products/:id", route.AsString())
}

func TestHTTPMetrics_StatusAttributes(t *testing.T) {
	router, reader := meteredCatalogRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/orders", strings.NewReader(`{}`)))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing-product", nil))

	m := collectMetric(t, reader, "http_server_request_total")
	require.NotNil(t, m)

	sum := m.Data.(metricdata.Sum[int64])
	codes := make(map[int64]int64)
	for _, dp := range sum.DataPoints {
		if code, ok := dp.Attributes.Value("http.status_code"); ok {
			codes[code.AsInt64()] += dp.Value
		}
	}
	assert.Equal(t, int64(1), codes[http.StatusCreated])
	assert.Equal(t, int64(1), codes[http.StatusNotFound])
}

func TestHTTPMetrics_Duration(t *testing.T) {
	router, reader := meteredCatalogRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/products/1", nil))

	m := collectMetric(t, reader, "http_server_request_duration_seconds")
	require.NotNil(t, m, "duration histogram not recorded")

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestHTTPMetrics_DisabledIsPassthrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
	router.GET("/products", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_NilMeterProviderIsPassthrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: true, MeterProvider: nil}))
	router.GET("/products", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var pattern string
	router.GET("/orders/:id", func(c *gin.Context) {
		pattern = getRoutePattern(c)
		c.Status(http.StatusOK)
	})
	router.NoRoute(func(c *gin.Context) {
		pattern = getRoutePattern(c)
		c.Status(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/orders/7", nil))
	assert.Equal(t, "/orders/:id", pattern)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, "unknown", pattern)
}
