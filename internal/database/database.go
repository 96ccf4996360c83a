package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
)

// Collection names used across the application.
const (
	CollCustomers  = "customers"
	CollProducts   = "products"
	CollOrders     = "orders"
	CollOrderItems = "order_items"
	CollCounters   = "counters"
)

// Connections holds the Mongo client and the application database handle.
// It replaces module-level collection globals: everything that talks to the
// database receives a *Connections explicitly.
type Connections struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New connects to the configured cluster and ties the client lifetime to Fx.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI()).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout)

	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	conns := &Connections{
		Client:   client,
		Database: client.Database(cfg.Mongo.Database),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
			defer cancel()
			if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
				return fmt.Errorf("ping mongodb: %w", err)
			}
			logger.Info("mongodb connected",
				zap.String("host", cfg.Mongo.Host),
				zap.String("database", cfg.Mongo.Database),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			disconnectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		},
	})

	return conns, nil
}

// Customers returns the customers collection handle.
func (c *Connections) Customers() *mongo.Collection {
	return c.Database.Collection(CollCustomers)
}

// Products returns the products collection handle.
func (c *Connections) Products() *mongo.Collection {
	return c.Database.Collection(CollProducts)
}

// Orders returns the orders collection handle.
func (c *Connections) Orders() *mongo.Collection {
	return c.Database.Collection(CollOrders)
}

// OrderItems returns the order_items collection handle.
func (c *Connections) OrderItems() *mongo.Collection {
	return c.Database.Collection(CollOrderItems)
}

// Counters returns the counters collection backing atomic ID allocation.
func (c *Connections) Counters() *mongo.Collection {
	return c.Database.Collection(CollCounters)
}
