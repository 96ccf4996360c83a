package commerce

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bazaar/internal/analytics"
	"github.com/Additional-Code/bazaar/internal/database"
	"github.com/Additional-Code/bazaar/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bazaar/repository/commerce")

// ErrInsufficientStock is returned when a stock decrement would go negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// Repository encapsulates access to the commerce collections.
type Repository struct {
	conns *database.Connections
}

// NewRepository wires a repository backed by the configured connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{conns: conns}
}

// WithTransaction runs fn inside a server transaction. Any error from fn
// aborts the transaction; the server rolls back every write in scope.
func (r *Repository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.conns.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// InsertOrder persists one order document.
func (r *Repository) InsertOrder(ctx context.Context, order *entity.Order) error {
	ctx, span := repoTracer.Start(ctx, "CommerceRepository.InsertOrder",
		trace.WithAttributes(attribute.Int64("order.id", order.OrderID)))
	defer span.End()

	_, err := r.conns.Orders().InsertOne(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// InsertOrderItems persists the line items of an order.
func (r *Repository) InsertOrderItems(ctx context.Context, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	ctx, span := repoTracer.Start(ctx, "CommerceRepository.InsertOrderItems",
		trace.WithAttributes(attribute.Int("items.count", len(items))))
	defer span.End()

	docs := make([]any, len(items))
	for i := range items {
		docs[i] = items[i]
	}
	_, err := r.conns.OrderItems().InsertMany(ctx, docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// DecrementStock reduces a product's stock by quantity, refusing to go
// negative. Intended to run inside the order transaction.
func (r *Repository) DecrementStock(ctx context.Context, productID, quantity int64) error {
	res, err := r.conns.Products().UpdateOne(ctx,
		bson.M{"product_id": productID, "stock": bson.M{"$gte": quantity}},
		bson.M{"$inc": bson.M{"stock": -quantity}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
	}
	return nil
}

// FindCustomer loads a customer by its numeric id.
func (r *Repository) FindCustomer(ctx context.Context, customerID int64) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.conns.Customers().FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// RevenueByCategory runs the revenue-by-category report.
func (r *Repository) RevenueByCategory(ctx context.Context) ([]analytics.CategoryRevenue, error) {
	return aggregate[analytics.CategoryRevenue](ctx, r.conns.OrderItems(), analytics.RevenueByCategoryPipeline())
}

// AverageDeliveryTime runs the fleet-wide delivery time report. The result
// is nil when no order has been delivered yet.
func (r *Repository) AverageDeliveryTime(ctx context.Context) (*analytics.DeliveryTime, error) {
	rows, err := aggregate[analytics.DeliveryTime](ctx, r.conns.Orders(), analytics.AverageDeliveryTimePipeline())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// DeliveryTimePerOrder runs the per-order delivery time report.
func (r *Repository) DeliveryTimePerOrder(ctx context.Context) ([]analytics.OrderDeliveryTime, error) {
	return aggregate[analytics.OrderDeliveryTime](ctx, r.conns.Orders(), analytics.DeliveryTimePerOrderPipeline())
}

// CustomersByState runs the customers-by-state report.
func (r *Repository) CustomersByState(ctx context.Context) ([]analytics.StateCustomers, error) {
	return aggregate[analytics.StateCustomers](ctx, r.conns.Customers(), analytics.CustomersByStatePipeline())
}

// TopProductsPerOrder runs the top-products-per-order report.
func (r *Repository) TopProductsPerOrder(ctx context.Context) ([]analytics.OrderTopProducts, error) {
	return aggregate[analytics.OrderTopProducts](ctx, r.conns.OrderItems(), analytics.TopProductsPerOrderPipeline())
}

// RevenueByProduct runs the revenue-by-product report.
func (r *Repository) RevenueByProduct(ctx context.Context) ([]analytics.ProductRevenue, error) {
	return aggregate[analytics.ProductRevenue](ctx, r.conns.Orders(), analytics.RevenueByProductPipeline())
}

func aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	ctx, span := repoTracer.Start(ctx, "CommerceRepository.Aggregate",
		trace.WithAttributes(attribute.String("collection", coll.Name())))
	defer span.End()

	cursor, err := coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []T
	if err := cursor.All(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, err
	}
	return rows, nil
}
