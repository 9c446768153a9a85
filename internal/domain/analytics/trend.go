package analytics

import (
	"math"

	"github.com/markethub/backend/internal/domain/shared"
)

// TrendDirection classifies the slope of a fitted series
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// Trend is a closed-form least-squares fit over a daily scalar series.
// X is the day index (0..n-1), Y the observed value.
type Trend struct {
	Slope     float64        `json:"slope"`
	Intercept float64        `json:"intercept"`
	RSquared  float64        `json:"r_squared"`
	Direction TrendDirection `json:"direction"`
	Points    int            `json:"points"`
}

// FitTrend fits an ordinary least squares line to the series.
// It needs at least two points. A zero-variance series yields a flat
// trend with R² reported as 0.
func FitTrend(series []float64) (*Trend, error) {
	n := len(series)
	if n < 2 {
		return nil, shared.ErrInsufficientData
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	// denom is zero only for n<2, already rejected above
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	meanY := sumY / fn
	var ssTot, ssRes float64
	for i, y := range series {
		fitted := intercept + slope*float64(i)
		ssTot += (y - meanY) * (y - meanY)
		ssRes += (y - fitted) * (y - fitted)
	}

	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
		if rSquared < 0 {
			rSquared = 0
		}
	}

	return &Trend{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared,
		Direction: classify(slope, meanY, 0.01),
		Points:    n,
	}, nil
}

// classify compares the per-step slope against a fraction of the series
// mean. Slopes within the threshold are flat.
func classify(slope, meanY, threshold float64) TrendDirection {
	scale := math.Abs(meanY)
	if scale == 0 {
		scale = 1
	}
	switch {
	case slope > threshold*scale:
		return TrendUp
	case slope < -threshold*scale:
		return TrendDown
	default:
		return TrendFlat
	}
}

// Forecast extrapolates the fitted line d days past the series end.
// Negative projections clamp to zero, revenue and counts cannot go
// below it.
func (t *Trend) Forecast(d int) float64 {
	x := float64(t.Points - 1 + d)
	v := t.Intercept + t.Slope*x
	if v < 0 {
		return 0
	}
	return v
}

// ForecastSeries returns projections for each of the next days
func (t *Trend) ForecastSeries(days int) []float64 {
	out := make([]float64, 0, days)
	for d := 1; d <= days; d++ {
		out = append(out, t.Forecast(d))
	}
	return out
}
