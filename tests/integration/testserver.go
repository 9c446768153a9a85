package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	catalogapp "github.com/markethub/backend/internal/application/catalog"
	identityapp "github.com/markethub/backend/internal/application/identity"
	orderapp "github.com/markethub/backend/internal/application/order"
	securityapp "github.com/markethub/backend/internal/application/security"
	syncapp "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/infrastructure/auth"
	"github.com/markethub/backend/internal/infrastructure/config"
	"github.com/markethub/backend/internal/infrastructure/persistence"
	"github.com/markethub/backend/internal/interfaces/http/handler"
	"github.com/markethub/backend/internal/interfaces/http/middleware"
	"github.com/markethub/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// lockThreshold used by the test auth service; small to keep lockout
// tests fast
const testLockThreshold = 3

// TestServer wraps the test database and a fully wired HTTP server.
// The route table mirrors the production server minus telemetry and
// background jobs; the security monitor is exposed so tests can drive
// scans directly.
type TestServer struct {
	DB       *TestDB
	Engine   *gin.Engine
	Monitor  *securityapp.Monitor
	Events   *securityapp.EventService
	Alerts   *securityapp.AlertService
	UserRepo *persistence.GormUserRepository
	RoleRepo *persistence.GormRoleRepository
}

// NewTestServer creates a new test server backed by a real database
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	testDB := NewTestDB(t)
	log := zap.NewNop()

	// Repositories
	userRepo := persistence.NewGormUserRepository(testDB.DB)
	roleRepo := persistence.NewGormRoleRepository(testDB.DB)
	productRepo := persistence.NewGormProductRepository(testDB.DB)
	categoryRepo := persistence.NewGormCategoryRepository(testDB.DB)
	orderRepo := persistence.NewGormOrderRepository(testDB.DB)
	securityEventRepo := persistence.NewGormSecurityEventRepository(testDB.DB)
	alertRepo := persistence.NewGormAlertRepository(testDB.DB)
	changeFeedRepo := persistence.NewGormChangeFeedRepository(testDB.DB)

	// Services
	recorder := syncapp.NewRecorder(changeFeedRepo, log)
	realtime := syncapp.NewRealtimeService(changeFeedRepo, log)
	securityEvents := securityapp.NewEventService(securityEventRepo, log)
	alertService := securityapp.NewAlertService(alertRepo, log)
	monitor := securityapp.NewMonitor(securityEventRepo, alertService, securityapp.MonitorConfig{
		Window:                    15 * time.Minute,
		FailedLoginThreshold:      3,
		PermissionDeniedThreshold: 3,
	}, log)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-at-least-32-characters!!",
		RefreshSecret:          "test-refresh-secret-32-characters!!!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "markethub-test",
		MaxRefreshCount:        10,
	})
	blacklist := auth.NewMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(userRepo, jwtService, securityEvents,
		identityapp.AuthServiceConfig{LockThreshold: testLockThreshold}, log)
	userService := identityapp.NewUserService(userRepo, roleRepo, recorder, log)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, recorder, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo, log)
	orderService := orderapp.NewOrderService(orderRepo, productRepo, recorder, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, userService, blacklist, log)
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	orderHandler := handler.NewOrderHandler(orderService)
	securityHandler := handler.NewSecurityHandler(securityEvents, alertService)
	syncHandler := handler.NewSyncHandler(realtime, changeFeedRepo, log)

	engine := gin.New()

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		Logger: log,
	}))

	permCfg := middleware.PermissionConfig{
		Logger: log,
		OnDenied: func(c *gin.Context, requiredPerms []string) {
			securityEvents.Record(c.Request.Context(), security.EventPermissionDenied, security.SeverityWarning,
				middleware.GetJWTUsername(c), c.ClientIP(), map[string]any{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_FORBIDDEN",
					"message": "Access denied: insufficient permissions",
				},
			})
		},
	}
	requireAny := func(perms ...string) gin.HandlerFunc {
		return middleware.RequireAnyPermissionWithConfig(permCfg, append(perms, identity.PermissionAll)...)
	}

	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.Use(requireAny(identity.PermissionUsersManage))
	userRoutes.POST("", userHandler.Create)
	userRoutes.GET("", userHandler.List)
	userRoutes.GET("/:id", userHandler.GetByID)

	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	manageProducts := requireAny(identity.PermissionProductsManage)
	catalogRoutes.POST("/products", manageProducts, productHandler.Create)
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/low-stock", productHandler.ListLowStock)
	catalogRoutes.GET("/products/sku/:sku", productHandler.GetBySKU)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.PUT("/products/:id", manageProducts, productHandler.Update)
	catalogRoutes.POST("/products/:id/stock", manageProducts, productHandler.AdjustStock)
	catalogRoutes.PUT("/products/:id/status", manageProducts, productHandler.SetStatus)
	catalogRoutes.DELETE("/products/:id", manageProducts, productHandler.Delete)
	catalogRoutes.POST("/categories", manageProducts, categoryHandler.Create)
	catalogRoutes.GET("/categories", categoryHandler.List)

	orderRoutes := router.NewDomainGroup("orders", "/orders")
	manageOrders := requireAny(identity.PermissionOrdersManage)
	orderRoutes.POST("", manageOrders, orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/status-summary", orderHandler.StatusSummary)
	orderRoutes.GET("/number/:number", orderHandler.GetByNumber)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.PUT("/:id/shipping", manageOrders, orderHandler.UpdateShipping)
	orderRoutes.POST("/:id/pay", manageOrders, orderHandler.MarkPaid)
	orderRoutes.POST("/:id/fulfil", manageOrders, orderHandler.Fulfil)
	orderRoutes.POST("/:id/complete", manageOrders, orderHandler.Complete)
	orderRoutes.POST("/:id/cancel", manageOrders, orderHandler.Cancel)
	orderRoutes.POST("/:id/refund", manageOrders, orderHandler.Refund)

	securityRoutes := router.NewDomainGroup("security", "/security")
	securityRoutes.Use(requireAny(identity.PermissionSecurityView))
	securityRoutes.GET("/events", securityHandler.ListEvents)
	securityRoutes.GET("/alerts", securityHandler.ListAlerts)
	securityRoutes.POST("/alerts/:id/acknowledge", securityHandler.AcknowledgeAlert)
	securityRoutes.POST("/alerts/:id/resolve", securityHandler.ResolveAlert)

	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.GET("/changes", syncHandler.Changes)

	r.Register(authRoutes).
		Register(userRoutes).
		Register(catalogRoutes).
		Register(orderRoutes).
		Register(securityRoutes).
		Register(syncRoutes)
	r.Setup()

	return &TestServer{
		DB:       testDB,
		Engine:   engine,
		Monitor:  monitor,
		Events:   securityEvents,
		Alerts:   alertService,
		UserRepo: userRepo,
		RoleRepo: roleRepo,
	}
}

// Request makes an HTTP request to the test server. A non-empty token
// is sent as a bearer token.
func (ts *TestServer) Request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	return w
}

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Meta *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta,omitempty"`
}

// decodeResponse unmarshals a recorded response body
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode response: %s", w.Body.String())
	return resp
}

// SeedUser creates an active user with one role holding the given
// permissions and returns the chosen password.
func (ts *TestServer) SeedUser(t *testing.T, username, email string, permissions ...string) string {
	t.Helper()
	ctx := context.Background()

	password := "Sup3rSecret!" + username

	role, err := identity.NewRole("role-"+username, "Role for "+username, permissions)
	require.NoError(t, err)
	require.NoError(t, ts.RoleRepo.Save(ctx, role))

	user, err := identity.NewUser(username, email, password)
	require.NoError(t, err)
	user.AssignRoles([]identity.Role{*role})
	require.NoError(t, ts.UserRepo.SaveWithRoles(ctx, user))

	return password
}

// SeedAdmin creates an admin user with the wildcard permission
func (ts *TestServer) SeedAdmin(t *testing.T) (username, password string) {
	t.Helper()
	username = "admin"
	password = ts.SeedUser(t, username, "admin@example.com", identity.PermissionAll)
	return username, password
}

// Login authenticates and returns the access and refresh tokens
func (ts *TestServer) Login(t *testing.T, username, password string) (access, refresh string) {
	t.Helper()

	w := ts.Request(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "unexpected login payload")
	access, _ = data["access_token"].(string)
	refresh, _ = data["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}
