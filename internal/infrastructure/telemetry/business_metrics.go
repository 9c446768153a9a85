// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the back office.
// It tracks order activity, login outcomes, security events and
// catalog/realtime health gauges.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderCreatedTotal  *Counter
	orderRevenueCents  *Counter
	loginAttemptsTotal *Counter
	securityEventTotal *Counter
	changeEventsTotal  *Counter

	// Gauge metrics (point-in-time values)
	lowStockProducts *Gauge
	syncSubscribers  *Gauge
	openAlerts       *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	gaugeProvider GaugeProvider
}

// GaugeProvider supplies point-in-time values for periodic collection.
// This interface keeps the telemetry layer from depending on the
// domain packages directly.
type GaugeProvider interface {
	// LowStockCount returns the number of active products at or below
	// their low stock threshold
	LowStockCount(ctx context.Context) (int64, error)
	// OpenAlertCount returns the number of unresolved security alerts
	OpenAlertCount(ctx context.Context) (int64, error)
	// SubscriberCount returns the number of connected realtime clients
	SubscriberCount() int
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 1 minute
	GaugeProvider   GaugeProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		gaugeProvider: cfg.GaugeProvider,
	}

	var err error

	bm.orderCreatedTotal, err = NewCounter(
		cfg.Meter,
		"markethub_order_created_total",
		"Total number of orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderRevenueCents, err = NewCounter(
		cfg.Meter,
		"markethub_order_revenue_cents_total",
		"Total revenue from paid orders, in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.loginAttemptsTotal, err = NewCounter(
		cfg.Meter,
		"markethub_login_attempts_total",
		"Total number of login attempts",
		"{attempts}",
	)
	if err != nil {
		return nil, err
	}

	bm.securityEventTotal, err = NewCounter(
		cfg.Meter,
		"markethub_security_events_total",
		"Total number of recorded security events",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	bm.changeEventsTotal, err = NewCounter(
		cfg.Meter,
		"markethub_change_events_total",
		"Total number of change feed events published",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	bm.lowStockProducts, err = NewGauge(
		cfg.Meter,
		"markethub_low_stock_products",
		"Number of active products at or below their low stock threshold",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	bm.syncSubscribers, err = NewGauge(
		cfg.Meter,
		"markethub_sync_subscribers",
		"Number of connected realtime subscribers",
		"{clients}",
	)
	if err != nil {
		return nil, err
	}

	bm.openAlerts, err = NewGauge(
		cfg.Meter,
		"markethub_open_alerts",
		"Number of unresolved security alerts",
		"{alerts}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderCreated records an order creation event.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, paymentMethod string) {
	bm.orderCreatedTotal.Inc(ctx,
		AttrPaymentMethod.String(paymentMethod),
	)
}

// RecordOrderPaid records the revenue of an order marked paid.
// The amount is converted to cents before recording.
func (bm *BusinessMetrics) RecordOrderPaid(ctx context.Context, paymentMethod string, amount decimal.Decimal) {
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.orderRevenueCents.Add(ctx, cents,
		AttrPaymentMethod.String(paymentMethod),
	)
}

// =============================================================================
// Identity and Security Metrics
// =============================================================================

// LoginResult is the outcome of a login attempt for metrics labeling.
type LoginResult string

const (
	LoginResultSuccess LoginResult = "success"
	LoginResultFailed  LoginResult = "failed"
	LoginResultLocked  LoginResult = "locked"
)

// RecordLoginAttempt records a login attempt and its outcome.
func (bm *BusinessMetrics) RecordLoginAttempt(ctx context.Context, result LoginResult) {
	bm.loginAttemptsTotal.Inc(ctx,
		AttrLoginResult.String(string(result)),
	)
}

// RecordSecurityEvent records a security event by type and severity.
func (bm *BusinessMetrics) RecordSecurityEvent(ctx context.Context, eventType, severity string) {
	bm.securityEventTotal.Inc(ctx,
		AttrEventType.String(eventType),
		AttrSeverity.String(severity),
	)
}

// =============================================================================
// Sync Metrics
// =============================================================================

// RecordChangeEvent records a change feed event published to subscribers.
func (bm *BusinessMetrics) RecordChangeEvent(ctx context.Context, entityType string) {
	bm.changeEventsTotal.Inc(ctx,
		AttrEntityType.String(entityType),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectGauges(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectGauges(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectGauges(ctx context.Context) {
	if bm.gaugeProvider == nil {
		bm.logger.Debug("No gauge provider configured, skipping gauge collection")
		return
	}

	if count, err := bm.gaugeProvider.LowStockCount(ctx); err != nil {
		bm.logger.Warn("Failed to collect low stock count", zap.Error(err))
	} else {
		bm.lowStockProducts.Record(ctx, count)
	}

	if count, err := bm.gaugeProvider.OpenAlertCount(ctx); err != nil {
		bm.logger.Warn("Failed to collect open alert count", zap.Error(err))
	} else {
		bm.openAlerts.Record(ctx, count)
	}

	bm.syncSubscribers.Record(ctx, int64(bm.gaugeProvider.SubscriberCount()))
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
