package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func echo(body string, status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(status, body)
	}
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	r := NewRouter(gin.New())
	r.Register(NewDomainGroup("catalog", "/catalog"))

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", echo("pong", http.StatusOK))

	r.Register(group)
	r.Setup()

	w := serve(engine, "GET", "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalog", "/catalog")
		assert.Equal(t, "catalog", g.Name())
		assert.Equal(t, "/catalog", g.Prefix())
	})

	t.Run("registers each HTTP verb", func(t *testing.T) {
		verbs := []struct {
			register func(g *DomainGroup, h gin.HandlerFunc)
			method   string
			path     string
			status   int
		}{
			{func(g *DomainGroup, h gin.HandlerFunc) { g.GET("/products", h) }, "GET", "/products", http.StatusOK},
			{func(g *DomainGroup, h gin.HandlerFunc) { g.POST("/products", h) }, "POST", "/products", http.StatusCreated},
			{func(g *DomainGroup, h gin.HandlerFunc) { g.PUT("/products/:id", h) }, "PUT", "/products/77", http.StatusOK},
			{func(g *DomainGroup, h gin.HandlerFunc) { g.PATCH("/products/:id", h) }, "PATCH", "/products/77", http.StatusOK},
			{func(g *DomainGroup, h gin.HandlerFunc) { g.DELETE("/products/:id", h) }, "DELETE", "/products/77", http.StatusNoContent},
		}

		for _, v := range verbs {
			t.Run(v.method, func(t *testing.T) {
				engine := gin.New()
				g := NewDomainGroup("catalog", "/catalog")
				v.register(g, echo("", v.status))

				g.RegisterRoutes(engine.Group("/api/v1"))

				w := serve(engine, v.method, "/api/v1/catalog"+v.path)
				assert.Equal(t, v.status, w.Code)
			})
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("orders", "/orders")

		g.Use(func(c *gin.Context) {
			c.Header("X-Domain", "orders")
			c.Next()
		})
		g.GET("", echo("ok", http.StatusOK))

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "GET", "/api/v1/orders")
		assert.Equal(t, "orders", w.Header().Get("X-Domain"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("catalog", "/catalog")

		g.Group("products", "/products").GET("", echo("products list", http.StatusOK))
		g.Group("categories", "/categories").GET("", echo("categories list", http.StatusOK))

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "GET", "/api/v1/catalog/products")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "products list", w.Body.String())

		w = serve(engine, "GET", "/api/v1/catalog/categories")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "categories list", w.Body.String())
	})
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Use(func(c *gin.Context) {
		c.Header("X-API-Middleware", "applied")
		c.Next()
	})

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", echo("pong", http.StatusOK))
	r.Register(group).Setup()

	// API routes pass through the router middleware
	w := serve(engine, "GET", "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "applied", w.Header().Get("X-API-Middleware"))

	// Routes outside the API group do not
	engine.GET("/health", echo("ok", http.StatusOK))
	w = serve(engine, "GET", "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-API-Middleware"))
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	catalog := NewDomainGroup("catalog", "/catalog")
	catalog.GET("/products", echo("products", http.StatusOK))

	orders := NewDomainGroup("orders", "/orders")
	orders.GET("", echo("orders", http.StatusOK))

	r.Register(catalog).Register(orders)
	r.Setup()

	w := serve(engine, "GET", "/api/v1/catalog/products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products", w.Body.String())

	w = serve(engine, "GET", "/api/v1/orders")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "orders", w.Body.String())
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("backups", "/backups")
	g.GET("", echo("list", http.StatusOK)).
		POST("", echo("created", http.StatusOK)).
		DELETE("/:id", echo("removed", http.StatusOK))

	r.Register(g).Setup()

	for _, tt := range []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/backups"},
		{"POST", "/api/v1/backups"},
		{"DELETE", "/api/v1/backups/9"},
	} {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
	}
}
