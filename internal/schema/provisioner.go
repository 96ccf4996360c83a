package schema

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/database"
)

// namespaceExists is the server code for "collection already exists".
const namespaceExists = 48

// Module provides the schema provisioner to Fx.
var Module = fx.Provide(NewProvisioner)

// Provisioner creates collections with validators and declares indexes.
// It is the document-store counterpart of a SQL migration runner.
type Provisioner struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewProvisioner wires a Provisioner against the application database.
func NewProvisioner(conns *database.Connections, logger *zap.Logger) *Provisioner {
	return &Provisioner{db: conns.Database, logger: logger}
}

// Provision creates every collection with its validator. Existing
// collections get their validator refreshed through collMod.
func (p *Provisioner) Provision(ctx context.Context) error {
	for name, validator := range Validators() {
		err := p.db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(validator))
		if err == nil {
			p.logger.Info("collection created", zap.String("collection", name))
			continue
		}
		if !isNamespaceExists(err) {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		if err := p.db.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}).Err(); err != nil {
			return fmt.Errorf("refresh validator for %s: %w", name, err)
		}
		p.logger.Info("collection validator refreshed", zap.String("collection", name))
	}
	return nil
}

// EnsureIndexes declares the uniqueness and lookup indexes for every
// collection.
func (p *Provisioner) EnsureIndexes(ctx context.Context) error {
	for name, models := range indexModels() {
		added, err := p.db.Collection(name).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
		p.logger.Info("indexes ensured",
			zap.String("collection", name),
			zap.Strings("indexes", added),
		)
	}
	return nil
}

func indexModels() map[string][]mongo.IndexModel {
	unique := options.Index().SetUnique(true)
	return map[string][]mongo.IndexModel{
		database.CollCustomers: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		database.CollProducts: {
			{Keys: bson.D{{Key: "product_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		database.CollOrders: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		database.CollOrderItems: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
			{Keys: bson.D{{Key: "product_id", Value: 1}}},
			{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "product_id", Value: 1}}},
		},
	}
}

func isNamespaceExists(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == namespaceExists
	}
	return false
}
