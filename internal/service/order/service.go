package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
	"github.com/Additional-Code/bazaar/internal/entity"
	"github.com/Additional-Code/bazaar/internal/messaging"
	repo "github.com/Additional-Code/bazaar/internal/repository/commerce"
	"github.com/Additional-Code/bazaar/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bazaar/service/order")

// Store is the persistence surface the order service needs. Implemented by
// the commerce repository.
type Store interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	NextID(ctx context.Context, sequence string) (int64, error)
	FindCustomer(ctx context.Context, customerID int64) (*entity.Customer, error)
	InsertOrder(ctx context.Context, order *entity.Order) error
	InsertOrderItems(ctx context.Context, items []entity.OrderItem) error
	DecrementStock(ctx context.Context, productID, quantity int64) error
}

// LineItem is one requested product of a new order.
type LineItem struct {
	ProductID int64
	Quantity  int64
	Price     int64
}

// Service orchestrates transactional order creation.
type Service struct {
	store          Store
	logger         *zap.Logger
	publisher      messaging.Client
	decrementStock bool
	messagingOn    bool
	now            func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:          p.Repository,
		logger:         p.Logger,
		publisher:      p.Publisher,
		decrementStock: p.Config.Orders.DecrementStock,
		messagingOn:    p.Config.Messaging.Enabled,
		now:            time.Now,
	}
}

// newServiceWithStore exists for tests that substitute the store.
func newServiceWithStore(store Store, logger *zap.Logger, publisher messaging.Client, decrementStock bool) *Service {
	return &Service{
		store:          store,
		logger:         logger,
		publisher:      publisher,
		decrementStock: decrementStock,
		messagingOn:    publisher != nil,
		now:            time.Now,
	}
}

// Create persists one new order and its line items in a single server
// transaction. When any write fails, the transaction aborts and no document
// of either kind survives.
func (s *Service) Create(ctx context.Context, customerID int64, lines []LineItem) (*entity.Order, []entity.OrderItem, error) {
	if customerID <= 0 {
		return nil, nil, errorbank.BadRequest("customer_id is required")
	}
	if len(lines) == 0 {
		return nil, nil, errorbank.BadRequest("at least one line item is required")
	}
	for _, line := range lines {
		if line.ProductID <= 0 {
			return nil, nil, errorbank.BadRequest("product_id is required on every line item")
		}
		if line.Quantity < 1 {
			return nil, nil, errorbank.BadRequest("quantity must be at least 1")
		}
		if line.Price < 0 {
			return nil, nil, errorbank.BadRequest("price must not be negative")
		}
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(
		attribute.Int64("customer.id", customerID),
		attribute.Int("items.count", len(lines)),
	))
	defer span.End()

	if _, err := s.store.FindCustomer(ctx, customerID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, errorbank.NotFound(fmt.Sprintf("customer %d not found", customerID))
		}
		return nil, nil, errorbank.FromMongo("failed to verify customer", err)
	}

	var (
		order *entity.Order
		items []entity.OrderItem
	)

	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		orderID, err := s.store.NextID(txCtx, repo.SeqOrderID)
		if err != nil {
			return err
		}

		order = &entity.Order{
			OrderID:    orderID,
			CustomerID: customerID,
			OrderDate:  s.now().UTC().Truncate(time.Second),
			Status:     entity.OrderStatusProcessing,
		}
		if err := s.store.InsertOrder(txCtx, order); err != nil {
			return err
		}

		items = make([]entity.OrderItem, 0, len(lines))
		for _, line := range lines {
			itemID, err := s.store.NextID(txCtx, repo.SeqOrderItemID)
			if err != nil {
				return err
			}
			items = append(items, entity.OrderItem{
				OrderItemID: itemID,
				OrderID:     orderID,
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				Price:       line.Price,
			})
		}
		if err := s.store.InsertOrderItems(txCtx, items); err != nil {
			return err
		}

		if s.decrementStock {
			for _, line := range lines {
				if err := s.store.DecrementStock(txCtx, line.ProductID, line.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction aborted")
		s.logger.Warn("order creation rolled back", zap.Int64("customer_id", customerID), zap.Error(err))
		return nil, nil, errorbank.FromMongo("failed to create order", err)
	}

	s.logger.Info("order created",
		zap.Int64("order_id", order.OrderID),
		zap.Int64("customer_id", customerID),
		zap.Int("items", len(items)),
	)

	s.publishOrderCreated(ctx, order, items)
	return order, items, nil
}

func (s *Service) publishOrderCreated(ctx context.Context, order *entity.Order, items []entity.OrderItem) {
	if !s.messagingOn || s.publisher == nil {
		return
	}
	event := CreatedEvent{
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		OrderDate:  order.OrderDate,
		Status:     string(order.Status),
		ItemCount:  len(items),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order created", zap.Error(err))
		return
	}
	key := []byte(fmt.Sprintf("order-%d", order.OrderID))
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		s.logger.Error("publish order created", zap.Error(err))
	}
}

// CreatedEvent is emitted when a new order is persisted.
type CreatedEvent struct {
	OrderID    int64     `json:"order_id"`
	CustomerID int64     `json:"customer_id"`
	OrderDate  time.Time `json:"order_date"`
	Status     string    `json:"status"`
	ItemCount  int       `json:"item_count"`
}
