package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/markethub/backend/internal/application/analytics"
)

// AnalyticsHandler handles dashboard and trend analytics endpoints
type AnalyticsHandler struct {
	BaseHandler
	dashboardService  *analytics.DashboardService
	predictiveService *analytics.PredictiveService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(
	dashboardService *analytics.DashboardService,
	predictiveService *analytics.PredictiveService,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		dashboardService:  dashboardService,
		predictiveService: predictiveService,
	}
}

// Dashboard godoc
// @Summary      Dashboard snapshot
// @Description  Return the aggregated store dashboard for a reporting window. Snapshots are cached for 60 seconds.
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        window query string false "Reporting window" Enums(today, 7d, 30d, 90d) default(7d)
// @Success      200 {object} dto.Response{data=analytics.DashboardDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	window := analytics.DashboardWindow(c.DefaultQuery("window", string(analytics.Window7Days)))

	snapshot, err := h.dashboardService.Snapshot(c.Request.Context(), window)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, snapshot)
}

// Trend godoc
// @Summary      Metric trend and forecast
// @Description  Fit a least-squares trend over the daily series for a metric and project it forward
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        metric query string false "Metric" Enums(revenue, orders) default(revenue)
// @Param        history_days query int false "Days of history to fit over" default(30)
// @Param        forecast_days query int false "Days to project forward" default(7)
// @Success      200 {object} dto.Response{data=analytics.TrendDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/trends [get]
func (h *AnalyticsHandler) Trend(c *gin.Context) {
	metric := analytics.TrendMetric(c.DefaultQuery("metric", string(analytics.MetricRevenue)))

	historyDays, err := strconv.Atoi(c.DefaultQuery("history_days", "0"))
	if err != nil {
		h.BadRequest(c, "Invalid history_days")
		return
	}
	forecastDays, err := strconv.Atoi(c.DefaultQuery("forecast_days", "0"))
	if err != nil {
		h.BadRequest(c, "Invalid forecast_days")
		return
	}

	trend, err := h.predictiveService.Trend(c.Request.Context(), metric, historyDays, forecastDays)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trend)
}
