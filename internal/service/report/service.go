package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/analytics"
	"github.com/Additional-Code/bazaar/internal/cache"
	"github.com/Additional-Code/bazaar/internal/config"
	"github.com/Additional-Code/bazaar/internal/plot"
	repo "github.com/Additional-Code/bazaar/internal/repository/commerce"
	"github.com/Additional-Code/bazaar/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bazaar/service/report")

// Report names as exposed over HTTP and the CLI.
const (
	NameRevenueByCategory    = "revenue-by-category"
	NameAverageDeliveryTime  = "average-delivery-time"
	NameDeliveryTimePerOrder = "delivery-time-per-order"
	NameCustomersByState     = "customers-by-state"
	NameTopProductsPerOrder  = "top-products-per-order"
	NameRevenueByProduct     = "revenue-by-product"
)

// Names lists every available report.
func Names() []string {
	return []string{
		NameRevenueByCategory,
		NameAverageDeliveryTime,
		NameDeliveryTimePerOrder,
		NameCustomersByState,
		NameTopProductsPerOrder,
		NameRevenueByProduct,
	}
}

// Service runs the analytical reports, caching results and rendering charts.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	renderer *plot.Renderer
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Renderer   *plot.Renderer
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new report Service.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		renderer: p.Renderer,
		logger:   p.Logger,
	}
}

// Run executes the named report and returns its rows.
func (s *Service) Run(ctx context.Context, name string) (any, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Run",
		trace.WithAttributes(attribute.String("report", name)))
	defer span.End()

	switch name {
	case NameRevenueByCategory:
		return s.RevenueByCategory(ctx)
	case NameAverageDeliveryTime:
		return s.AverageDeliveryTime(ctx)
	case NameDeliveryTimePerOrder:
		return s.DeliveryTimePerOrder(ctx)
	case NameCustomersByState:
		return s.CustomersByState(ctx)
	case NameTopProductsPerOrder:
		return s.TopProductsPerOrder(ctx)
	case NameRevenueByProduct:
		return s.RevenueByProduct(ctx)
	default:
		return nil, errorbank.NotFound(fmt.Sprintf("unknown report: %s", name))
	}
}

// RevenueByCategory returns total revenue per product category, descending.
func (s *Service) RevenueByCategory(ctx context.Context) ([]analytics.CategoryRevenue, error) {
	return cached(ctx, s, NameRevenueByCategory, s.repo.RevenueByCategory)
}

// AverageDeliveryTime returns the fleet-wide average delivery time.
func (s *Service) AverageDeliveryTime(ctx context.Context) (*analytics.DeliveryTime, error) {
	return cached(ctx, s, NameAverageDeliveryTime, s.repo.AverageDeliveryTime)
}

// DeliveryTimePerOrder returns delivery times per delivered order.
func (s *Service) DeliveryTimePerOrder(ctx context.Context) ([]analytics.OrderDeliveryTime, error) {
	return cached(ctx, s, NameDeliveryTimePerOrder, s.repo.DeliveryTimePerOrder)
}

// CustomersByState returns customer counts grouped by state.
func (s *Service) CustomersByState(ctx context.Context) ([]analytics.StateCustomers, error) {
	return cached(ctx, s, NameCustomersByState, s.repo.CustomersByState)
}

// TopProductsPerOrder returns each order's three most expensive products.
func (s *Service) TopProductsPerOrder(ctx context.Context) ([]analytics.OrderTopProducts, error) {
	return cached(ctx, s, NameTopProductsPerOrder, s.repo.TopProductsPerOrder)
}

// RevenueByProduct returns total revenue per product, descending.
func (s *Service) RevenueByProduct(ctx context.Context) ([]analytics.ProductRevenue, error) {
	return cached(ctx, s, NameRevenueByProduct, s.repo.RevenueByProduct)
}

// RenderCharts renders the chartable reports and returns the written paths.
func (s *Service) RenderCharts(ctx context.Context) ([]string, error) {
	var paths []string

	categories, err := s.RevenueByCategory(ctx)
	if err != nil {
		return nil, err
	}
	bars := make([]plot.Bar, len(categories))
	for i, row := range categories {
		bars[i] = plot.Bar{Label: row.Category, Value: float64(row.TotalRevenue)}
	}
	path, err := s.renderer.SaveBarChart("Total Revenue by Product Category", bars)
	if err != nil {
		return nil, err
	}
	paths = append(paths, path)

	deliveries, err := s.DeliveryTimePerOrder(ctx)
	if err != nil {
		return nil, err
	}
	bars = make([]plot.Bar, len(deliveries))
	for i, row := range deliveries {
		bars[i] = plot.Bar{Label: fmt.Sprintf("%d", row.OrderID), Value: row.AverageDays}
	}
	path, err = s.renderer.SaveBarChart("Average Delivery Time per Order", bars)
	if err != nil {
		return nil, err
	}
	paths = append(paths, path)

	states, err := s.CustomersByState(ctx)
	if err != nil {
		return nil, err
	}
	bars = make([]plot.Bar, len(states))
	for i, row := range states {
		bars[i] = plot.Bar{Label: row.State, Value: float64(row.CustomerCount)}
	}
	path, err = s.renderer.SaveBarChart("Customer Count by State", bars)
	if err != nil {
		return nil, err
	}
	paths = append(paths, path)

	return paths, nil
}

func cacheKey(name string) string {
	return "reports:" + name
}

func cached[T any](ctx context.Context, s *Service, name string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if raw, err := s.cache.Get(ctx, cacheKey(name)); err == nil {
		var rows T
		if err := json.Unmarshal(raw, &rows); err == nil {
			return rows, nil
		}
		// A stale or corrupt entry falls through to a fresh run.
		_ = s.cache.Delete(ctx, cacheKey(name))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("report", name), zap.Error(err))
	}

	rows, err := fetch(ctx)
	if err != nil {
		return zero, errorbank.FromMongo(fmt.Sprintf("report %s failed", name), err)
	}

	if raw, err := json.Marshal(rows); err == nil {
		if err := s.cache.Set(ctx, cacheKey(name), raw, s.cacheTTL); err != nil {
			s.logger.Warn("report cache write failed", zap.String("report", name), zap.Error(err))
		}
	}

	return rows, nil
}
