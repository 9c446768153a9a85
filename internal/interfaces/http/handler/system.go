package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markethub/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SystemHandler handles system info and health endpoints
type SystemHandler struct {
	BaseHandler
	db        *gorm.DB
	redis     *redis.Client
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new system handler. db and redis may be
// nil; their health checks are then reported as skipped.
func NewSystemHandler(db *gorm.DB, redisClient *redis.Client, version string) *SystemHandler {
	if version == "" {
		version = "dev"
	}
	return &SystemHandler{
		db:        db,
		redis:     redisClient,
		version:   version,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"MarketHub Backend API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// HealthCheck is the status of one dependency
type HealthCheck struct {
	Status  string `json:"status" example:"ok"`
	Latency string `json:"latency,omitempty" example:"1.2ms"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the aggregated health report
type HealthResponse struct {
	Status string                 `json:"status" example:"ok"`
	Uptime string                 `json:"uptime" example:"1h30m45s"`
	Checks map[string]HealthCheck `json:"checks"`
}

// DBStatsResponse reports database connection pool statistics
type DBStatsResponse struct {
	OpenConnections int    `json:"open_connections" example:"5"`
	InUse           int    `json:"in_use" example:"1"`
	Idle            int    `json:"idle" example:"4"`
	MaxOpen         int    `json:"max_open" example:"100"`
	WaitCount       int64  `json:"wait_count" example:"0"`
	WaitDuration    string `json:"wait_duration" example:"0s"`
	MaxIdleClosed   int64  `json:"max_idle_closed" example:"0"`
	MaxLifeClosed   int64  `json:"max_lifetime_closed" example:"0"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "MarketHub Backend API",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// DBStats godoc
// @Summary      Database pool statistics
// @Description  Report connection pool statistics for the primary database
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[DBStatsResponse]
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /system/db-stats [get]
func (h *SystemHandler) DBStats(c *gin.Context) {
	if h.db == nil {
		h.InternalError(c, "Database is not configured")
		return
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		h.InternalError(c, "Failed to access database pool")
		return
	}

	stats := sqlDB.Stats()
	c.JSON(http.StatusOK, dto.NewSuccessResponse(DBStatsResponse{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpen:         stats.MaxOpenConnections,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration.String(),
		MaxIdleClosed:   stats.MaxIdleClosed,
		MaxLifeClosed:   stats.MaxLifetimeClosed,
	}))
}

// Health godoc
// @Summary      Health check
// @Description  Report the health of the service and its dependencies. Returns 503 when any check fails.
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	checks := make(map[string]HealthCheck)
	healthy := true

	if h.db != nil {
		start := time.Now()
		check := HealthCheck{Status: "ok"}
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			check.Status = "down"
			check.Error = err.Error()
			healthy = false
		}
		check.Latency = time.Since(start).Round(time.Microsecond * 100).String()
		checks["database"] = check
	} else {
		checks["database"] = HealthCheck{Status: "skipped"}
	}

	if h.redis != nil {
		start := time.Now()
		check := HealthCheck{Status: "ok"}
		if err := h.redis.Ping(ctx).Err(); err != nil {
			check.Status = "down"
			check.Error = err.Error()
			healthy = false
		}
		check.Latency = time.Since(start).Round(time.Microsecond * 100).String()
		checks["redis"] = check
	} else {
		checks["redis"] = HealthCheck{Status: "skipped"}
	}

	response := HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
		Checks: checks,
	}

	status := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, dto.NewSuccessResponse(response))
}
