package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/markethub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// PermissionConfig customizes the permission middleware.
type PermissionConfig struct {
	Logger *zap.Logger
	// OnDenied replaces the default 403 response when set.
	OnDenied func(c *gin.Context, requiredPerms []string)
}

// permissionMode selects how a permission list is evaluated.
type permissionMode int

const (
	anyOf permissionMode = iota
	allOf
)

// RequirePermission guards a route with a single permission string.
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission passes when the caller holds at least one of the
// listed permissions.
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig is RequireAnyPermission with a custom
// logger or denial hook. The server wires its route table through this.
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return requirePermissions(cfg, anyOf, permissions)
}

// RequireAllPermissions passes only when the caller holds every listed
// permission.
func RequireAllPermissions(permissions ...string) gin.HandlerFunc {
	return requirePermissions(PermissionConfig{}, allOf, permissions)
}

func requirePermissions(cfg PermissionConfig, mode permissionMode, permissions []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			denyPermission(c, cfg, permissions, "no authentication claims")
			return
		}

		granted := false
		switch mode {
		case anyOf:
			granted = claims.HasAnyPermission(permissions...)
		case allOf:
			granted = claims.HasAllPermissions(permissions...)
		}
		if !granted {
			denyPermission(c, cfg, permissions, "missing permission")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Permission check passed",
				zap.String("user_id", claims.UserID),
				zap.Strings("required", permissions),
			)
		}
		c.Next()
	}
}

// RequireResource derives the permission from the resource name and the
// HTTP method: GET needs resource:read, POST resource:create, PUT/PATCH
// resource:update, DELETE resource:delete.
func RequireResource(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		permission := resource + ":" + methodToAction(c.Request.Method)
		requirePermissions(PermissionConfig{}, anyOf, []string{permission})(c)
	}
}

func methodToAction(method string) string {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

func denyPermission(c *gin.Context, cfg PermissionConfig, requiredPerms []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredPerms)
		return
	}

	if cfg.Logger != nil {
		userID := ""
		userPerms := []string{}
		if claims := GetJWTClaims(c); claims != nil {
			userID = claims.UserID
			userPerms = claims.Permissions
		}
		cfg.Logger.Warn("Permission denied",
			zap.String("reason", reason),
			zap.String("user_id", userID),
			zap.Strings("required_permissions", requiredPerms),
			zap.Strings("user_permissions", userPerms),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	writeForbidden(c)
}

func writeForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_FORBIDDEN",
			"message": "Access denied: insufficient permissions",
		},
	})
}

// RoutePermission is one row of a centralized route permission table.
type RoutePermission struct {
	Method      string   // HTTP method, or "*" for all methods
	Path        string   // route pattern; a trailing "*" makes it a prefix match
	Permissions []string // required permissions
	RequireAll  bool     // require all listed permissions instead of any
}

// RoutePermissionConfig configures RoutePermissionMiddleware.
type RoutePermissionConfig struct {
	Routes []RoutePermission
	Logger *zap.Logger
	// DefaultDeny rejects requests that match no table row. When false,
	// unmatched routes pass through to per-route middleware.
	DefaultDeny bool
	OnDenied    func(c *gin.Context, route *RoutePermission)
}

// RoutePermissionMiddleware enforces a single permission table across all
// routes instead of per-route guards.
func RoutePermissionMiddleware(cfg RoutePermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// FullPath gives the registered pattern (/api/v1/products/:id),
		// which is what the table rows are written against.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		var matched *RoutePermission
		for i := range cfg.Routes {
			if matchRoute(&cfg.Routes[i], method, path) {
				matched = &cfg.Routes[i]
				break
			}
		}

		if matched == nil {
			if cfg.DefaultDeny {
				if cfg.Logger != nil {
					cfg.Logger.Warn("No route permission defined, access denied",
						zap.String("path", path),
						zap.String("method", method),
					)
				}
				denyRoutePermission(c, cfg, nil)
				return
			}
			c.Next()
			return
		}

		claims := GetJWTClaims(c)
		if claims == nil {
			denyRoutePermission(c, cfg, matched)
			return
		}

		granted := claims.HasAnyPermission(matched.Permissions...)
		if matched.RequireAll {
			granted = claims.HasAllPermissions(matched.Permissions...)
		}
		if !granted {
			denyRoutePermission(c, cfg, matched)
			return
		}

		c.Next()
	}
}

func matchRoute(route *RoutePermission, method, path string) bool {
	if route.Method != "*" && !strings.EqualFold(route.Method, method) {
		return false
	}
	if prefix, ok := strings.CutSuffix(route.Path, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return route.Path == path
}

func denyRoutePermission(c *gin.Context, cfg RoutePermissionConfig, route *RoutePermission) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, route)
		return
	}

	if cfg.Logger != nil {
		userID := ""
		userPerms := []string{}
		if claims := GetJWTClaims(c); claims != nil {
			userID = claims.UserID
			userPerms = claims.Permissions
		}
		requiredPerms := []string{}
		if route != nil {
			requiredPerms = route.Permissions
		}
		cfg.Logger.Warn("Route permission denied",
			zap.String("user_id", userID),
			zap.Strings("required_permissions", requiredPerms),
			zap.Strings("user_permissions", userPerms),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	writeForbidden(c)
}

// HasPermission reports whether the authenticated caller holds the
// permission. For checks inside handlers rather than middleware.
func HasPermission(c *gin.Context, permission string) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.HasPermission(permission)
}

// HasAnyPermission reports whether the caller holds at least one of the
// permissions.
func HasAnyPermission(c *gin.Context, permissions ...string) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.HasAnyPermission(permissions...)
}

// HasAllPermissions reports whether the caller holds every permission.
func HasAllPermissions(c *gin.Context, permissions ...string) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.HasAllPermissions(permissions...)
}

// MustHavePermission aborts with 403 when the caller lacks the
// permission. Returns true when the request may proceed.
func MustHavePermission(c *gin.Context, permission string) bool {
	if !HasPermission(c, permission) {
		writeForbidden(c)
		return false
	}
	return true
}

// CheckPermissionFunc evaluates a permission decision that cannot be
// expressed as a static permission string.
type CheckPermissionFunc func(claims *auth.Claims, c *gin.Context) bool

// RequireCustomPermission guards a route with an arbitrary check, for
// rules like "supervisors, or the clerk assigned to this order".
func RequireCustomPermission(checkFunc CheckPermissionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			denyPermission(c, PermissionConfig{}, []string{"custom"}, "no authentication claims")
			return
		}
		if !checkFunc(claims, c) {
			denyPermission(c, PermissionConfig{}, []string{"custom"}, "custom permission check failed")
			return
		}
		c.Next()
	}
}
