package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/markethub/backend/internal/domain/analytics"
	"github.com/markethub/backend/internal/domain/order"
	"github.com/markethub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TrendMetric selects which daily series a trend is fitted over
type TrendMetric string

const (
	MetricRevenue    TrendMetric = "revenue"
	MetricOrderCount TrendMetric = "orders"
)

const (
	defaultHistoryDays  = 30
	defaultForecastDays = 7
	maxForecastDays     = 90
)

// TrendDTO is a fitted trend plus its forward projection
type TrendDTO struct {
	Metric    string    `json:"metric"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"r_squared"`
	Direction string    `json:"direction"`
	Points    int       `json:"points"`
	History   []float64 `json:"history"`
	Forecast  []float64 `json:"forecast"`
}

// PredictiveService fits trends over order history for forecasting
type PredictiveService struct {
	orderRepo order.OrderRepository
	logger    *zap.Logger
}

// NewPredictiveService creates a new predictive analytics service
func NewPredictiveService(orderRepo order.OrderRepository, logger *zap.Logger) *PredictiveService {
	return &PredictiveService{orderRepo: orderRepo, logger: logger}
}

// Trend fits a least-squares line over the daily series for the metric
// and projects it forward. historyDays and forecastDays fall back to
// defaults when non-positive.
func (s *PredictiveService) Trend(ctx context.Context, metric TrendMetric, historyDays, forecastDays int) (*TrendDTO, error) {
	if metric != MetricRevenue && metric != MetricOrderCount {
		return nil, shared.NewDomainError("UNKNOWN_METRIC", "Unknown trend metric: "+string(metric))
	}
	if historyDays <= 0 {
		historyDays = defaultHistoryDays
	}
	if forecastDays <= 0 {
		forecastDays = defaultForecastDays
	}
	if forecastDays > maxForecastDays {
		forecastDays = maxForecastDays
	}

	now := time.Now()
	from := now.AddDate(0, 0, -historyDays)

	points, err := s.orderRepo.DailyRevenue(ctx, from, now)
	if err != nil {
		s.logger.Error("Failed to load daily revenue", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load order history")
	}

	series := seriesFor(metric, points)
	trend, err := analytics.FitTrend(series)
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientData) {
			return nil, shared.NewDomainError("INSUFFICIENT_DATA",
				"At least two days of history are required to fit a trend")
		}
		return nil, err
	}

	return &TrendDTO{
		Metric:    string(metric),
		From:      from,
		To:        now,
		Slope:     trend.Slope,
		Intercept: trend.Intercept,
		RSquared:  trend.RSquared,
		Direction: string(trend.Direction),
		Points:    trend.Points,
		History:   series,
		Forecast:  trend.ForecastSeries(forecastDays),
	}, nil
}

// seriesFor maps rolled-up revenue points onto a contiguous daily
// series for the requested metric. The repository only returns rows
// for days that had paid orders, so days between the first and last
// observed day with no sales are filled with zeros. The fit treats
// slice position as the day index and needs evenly spaced samples.
func seriesFor(metric TrendMetric, points []order.RevenuePoint) []float64 {
	if len(points) == 0 {
		return nil
	}

	first := truncateDay(points[0].Day)
	last := first
	for _, p := range points[1:] {
		day := truncateDay(p.Day)
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	days := int(last.Sub(first).Hours()/24) + 1
	series := make([]float64, days)
	for _, p := range points {
		i := int(truncateDay(p.Day).Sub(first).Hours() / 24)
		if metric == MetricOrderCount {
			series[i] = float64(p.Orders)
		} else {
			series[i], _ = p.Revenue.Float64()
		}
	}
	return series
}

func truncateDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
