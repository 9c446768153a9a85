// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// SubscriberCounter reports the number of connected realtime clients
type SubscriberCounter interface {
	SubscriberCount() int
}

// GormGaugeProvider implements GaugeProvider with direct table queries,
// keeping periodic collection off the repository hot paths.
type GormGaugeProvider struct {
	db          *gorm.DB
	subscribers SubscriberCounter
}

// NewGormGaugeProvider creates a new GormGaugeProvider. subscribers may
// be nil when the realtime service is disabled.
func NewGormGaugeProvider(db *gorm.DB, subscribers SubscriberCounter) *GormGaugeProvider {
	return &GormGaugeProvider{db: db, subscribers: subscribers}
}

// LowStockCount returns the number of active products at or below
// their low stock threshold.
func (p *GormGaugeProvider) LowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("status = ?", "active").
		Where("low_stock_threshold > 0 AND stock_quantity <= low_stock_threshold").
		Count(&count).Error
	return count, err
}

// OpenAlertCount returns the number of unresolved security alerts.
func (p *GormGaugeProvider) OpenAlertCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("security_alerts").
		Where("status IN ?", []string{"open", "acknowledged"}).
		Count(&count).Error
	return count, err
}

// SubscriberCount returns the number of connected realtime clients.
func (p *GormGaugeProvider) SubscriberCount() int {
	if p.subscribers == nil {
		return 0
	}
	return p.subscribers.SubscriberCount()
}

// Ensure GormGaugeProvider implements GaugeProvider
var _ GaugeProvider = (*GormGaugeProvider)(nil)
