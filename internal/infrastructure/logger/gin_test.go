package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func loggedRouter(level zapcore.Level, register func(*gin.Engine)) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(level)

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	register(router)
	return router, recorded
}

func requestLogEntry(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	for _, entry := range recorded.All() {
		if entry.Message == "HTTP Request" {
			return entry
		}
	}
	t.Fatal("no HTTP Request entry logged")
	return observer.LoggedEntry{}
}

func logField(entry observer.LoggedEntry, key string) (zapcore.Field, bool) {
	for _, field := range entry.Context {
		if field.Key == key {
			return field, true
		}
	}
	return zapcore.Field{}, false
}

func TestGinMiddleware_StatusLevels(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected zapcore.Level
	}{
		{"2xx logs at info", http.StatusOK, zapcore.InfoLevel},
		{"4xx logs at warn", http.StatusNotFound, zapcore.WarnLevel},
		{"5xx logs at error", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, recorded := loggedRouter(zapcore.DebugLevel, func(r *gin.Engine) {
				r.GET("/api/v1/products", func(c *gin.Context) {
					c.Status(tt.status)
				})
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/v1/products", nil)
			router.ServeHTTP(w, req)

			entry := requestLogEntry(t, recorded)
			assert.Equal(t, tt.expected, entry.Level)
		})
	}
}

func TestGinMiddleware_CarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-7f3a")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/api/v1/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/orders", nil)
	router.ServeHTTP(w, req)

	entry := requestLogEntry(t, recorded)
	field, ok := logField(entry, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-7f3a", field.String)
}

func TestGinMiddleware_LogsQueryString(t *testing.T) {
	router, recorded := loggedRouter(zapcore.InfoLevel, func(r *gin.Engine) {
		r.GET("/api/v1/products", func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/products?keyword=widget&page=2", nil)
	router.ServeHTTP(w, req)

	entry := requestLogEntry(t, recorded)
	field, ok := logField(entry, "query")
	require.True(t, ok)
	assert.Contains(t, field.String, "keyword=widget")
}

func TestGinMiddleware_StandardFields(t *testing.T) {
	router, recorded := loggedRouter(zapcore.InfoLevel, func(r *gin.Engine) {
		r.POST("/api/v1/products", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"id": 1})
		})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/products", nil)
	req.Header.Set("User-Agent", "markethub-cli/1.0")
	router.ServeHTTP(w, req)

	entry := requestLogEntry(t, recorded)
	for _, key := range []string{"status", "latency", "client_ip", "user_agent", "body_size", "method", "path"} {
		_, ok := logField(entry, key)
		assert.True(t, ok, "missing field %q", key)
	}
}

func TestGinMiddleware_QuietPaths(t *testing.T) {
	t.Run("healthy probe is not logged", func(t *testing.T) {
		router, recorded := loggedRouter(zapcore.InfoLevel, func(r *gin.Engine) {
			r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		assert.Empty(t, recorded.All())
	})

	t.Run("failing probe is logged", func(t *testing.T) {
		router, recorded := loggedRouter(zapcore.InfoLevel, func(r *gin.Engine) {
			r.GET("/health", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		require.NotEmpty(t, recorded.All())
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/api/v1/reports/export", func(c *gin.Context) {
		panic("nil pointer in report builder")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/reports/export", nil)
	assert.NotPanics(t, func() { router.ServeHTTP(w, req) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0].Message, "Panic recovered")
}

func TestGetGinLogger(t *testing.T) {
	t.Run("request-scoped logger", func(t *testing.T) {
		var got *zap.Logger
		router, _ := loggedRouter(zapcore.InfoLevel, func(r *gin.Engine) {
			r.GET("/api/v1/orders", func(c *gin.Context) {
				got = GetGinLogger(c)
				c.Status(http.StatusOK)
			})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders", nil)
		router.ServeHTTP(w, req)

		assert.NotNil(t, got)
	})

	t.Run("falls back to nop without middleware", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		var got *zap.Logger

		router := gin.New()
		router.GET("/api/v1/orders", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders", nil)
		router.ServeHTTP(w, req)

		require.NotNil(t, got)
		assert.NotPanics(t, func() { got.Info("no-op") })
	})
}
