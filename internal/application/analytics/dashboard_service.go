package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/order"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cache is the read-through cache the dashboard snapshot is stored in.
// The redis implementation lives in infrastructure/cache; tests and
// degraded deployments use the in-memory one.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// DashboardWindow is a reporting period for the dashboard snapshot
type DashboardWindow string

const (
	WindowToday  DashboardWindow = "today"
	Window7Days  DashboardWindow = "7d"
	Window30Days DashboardWindow = "30d"
	Window90Days DashboardWindow = "90d"
)

var windowDurations = map[DashboardWindow]time.Duration{
	Window7Days:  7 * 24 * time.Hour,
	Window30Days: 30 * 24 * time.Hour,
	Window90Days: 90 * 24 * time.Hour,
}

const dashboardCacheTTL = 60 * time.Second

// TopProductDTO is a best-selling product line in the dashboard
type TopProductDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Units       int64  `json:"units"`
	Revenue     string `json:"revenue"`
}

// DashboardDTO is the aggregated snapshot served to the admin dashboard
type DashboardDTO struct {
	Window          string           `json:"window"`
	From            time.Time        `json:"from"`
	To              time.Time        `json:"to"`
	Revenue         string           `json:"revenue"`
	PreviousRevenue string           `json:"previous_revenue"`
	RevenueDeltaPct *float64         `json:"revenue_delta_pct,omitempty"`
	OrdersByStatus  map[string]int64 `json:"orders_by_status"`
	TotalOrders     int64            `json:"total_orders"`
	TopProducts     []TopProductDTO  `json:"top_products"`
	ActiveProducts  int64            `json:"active_products"`
	LowStockCount   int64            `json:"low_stock_count"`
	ActiveUsers     int64            `json:"active_users"`
	GeneratedAt     time.Time        `json:"generated_at"`
	FromCache       bool             `json:"-"`
}

// DashboardService aggregates store metrics into a cached snapshot
type DashboardService struct {
	orderRepo   order.OrderRepository
	productRepo catalog.ProductRepository
	userRepo    identity.UserRepository
	cache       Cache
	logger      *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	orderRepo order.OrderRepository,
	productRepo catalog.ProductRepository,
	userRepo identity.UserRepository,
	cache Cache,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		cache:       cache,
		logger:      logger,
	}
}

// Snapshot returns the dashboard for the given window, serving a cached
// copy when one is fresh. Cache failures degrade to a direct read.
func (s *DashboardService) Snapshot(ctx context.Context, window DashboardWindow) (*DashboardDTO, error) {
	key := "dashboard:" + string(window)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Dashboard cache read failed", zap.Error(err))
		} else if ok {
			var dto DashboardDTO
			if err := json.Unmarshal([]byte(cached), &dto); err == nil {
				dto.FromCache = true
				return &dto, nil
			}
			s.logger.Warn("Dashboard cache entry corrupted", zap.String("key", key))
		}
	}

	dto, err := s.build(ctx, window)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(dto); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), dashboardCacheTTL); err != nil {
				s.logger.Warn("Dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return dto, nil
}

func (s *DashboardService) build(ctx context.Context, window DashboardWindow) (*DashboardDTO, error) {
	now := time.Now()
	from, prevFrom := windowBounds(window, now)

	revenue, err := s.orderRepo.RevenueBetween(ctx, from, now)
	if err != nil {
		s.logger.Error("Failed to compute revenue", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build dashboard")
	}
	prevRevenue, err := s.orderRepo.RevenueBetween(ctx, prevFrom, from)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build dashboard")
	}

	statusCounts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build dashboard")
	}
	byStatus := make(map[string]int64, len(statusCounts))
	var totalOrders int64
	for _, sc := range statusCounts {
		byStatus[string(sc.Status)] = sc.Count
		totalOrders += sc.Count
	}

	topSales, err := s.orderRepo.TopProducts(ctx, from, now, 5)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build dashboard")
	}
	topProducts := make([]TopProductDTO, len(topSales))
	for i, p := range topSales {
		topProducts[i] = TopProductDTO{
			ProductID:   p.ProductID.String(),
			ProductName: p.ProductName,
			SKU:         p.SKU,
			Units:       p.Units,
			Revenue:     p.Revenue.StringFixed(2),
		}
	}

	activeProducts, err := s.productRepo.CountByStatus(ctx, catalog.ProductStatusActive)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build dashboard")
	}
	lowStock, err := s.productRepo.CountLowStock(ctx)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build dashboard")
	}
	activeUsers, err := s.userRepo.CountByStatus(ctx, identity.UserStatusActive)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build dashboard")
	}

	return &DashboardDTO{
		Window:          string(window),
		From:            from,
		To:              now,
		Revenue:         revenue.StringFixed(2),
		PreviousRevenue: prevRevenue.StringFixed(2),
		RevenueDeltaPct: RevenueDelta(revenue, prevRevenue),
		OrdersByStatus:  byStatus,
		TotalOrders:     totalOrders,
		TopProducts:     topProducts,
		ActiveProducts:  activeProducts,
		LowStockCount:   lowStock,
		ActiveUsers:     activeUsers,
		GeneratedAt:     now,
	}, nil
}

// windowBounds returns the window start and the start of the preceding
// window of equal length, used for the revenue delta.
func windowBounds(window DashboardWindow, now time.Time) (from, prevFrom time.Time) {
	if window == WindowToday {
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return from, from.AddDate(0, 0, -1)
	}
	d, ok := windowDurations[window]
	if !ok {
		d = windowDurations[Window7Days]
	}
	from = now.Add(-d)
	return from, from.Add(-d)
}

// RevenueDelta computes the percentage change between two revenue values
func RevenueDelta(current, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		return nil
	}
	delta, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return &delta
}
