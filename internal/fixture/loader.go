package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
	"github.com/Additional-Code/bazaar/internal/database"
)

// Module provides the fixture loader to Fx.
var Module = fx.Provide(NewLoader)

// files maps each provisioned collection to its fixture file.
var files = map[string]string{
	database.CollCustomers:  "customers.json",
	database.CollProducts:   "products.json",
	database.CollOrders:     "orders.json",
	database.CollOrderItems: "order_items.json",
}

// loadOrder keeps referenced collections loaded before their referents.
var loadOrder = []string{
	database.CollCustomers,
	database.CollProducts,
	database.CollOrders,
	database.CollOrderItems,
}

// Loader bulk-inserts JSON fixtures into the collections.
type Loader struct {
	conns  *database.Connections
	dir    string
	logger *zap.Logger
}

// NewLoader builds a Loader reading from the configured dataset directory.
func NewLoader(conns *database.Connections, cfg config.Config, logger *zap.Logger) *Loader {
	return &Loader{conns: conns, dir: cfg.Dataset.Dir, logger: logger}
}

// LoadAll loads every fixture file into its collection.
func (l *Loader) LoadAll(ctx context.Context) error {
	for _, coll := range loadOrder {
		if err := l.LoadCollection(ctx, coll); err != nil {
			return err
		}
	}
	return nil
}

// LoadCollection loads one collection's fixture file.
func (l *Loader) LoadCollection(ctx context.Context, coll string) error {
	file, ok := files[coll]
	if !ok {
		return fmt.Errorf("no fixture file for collection %s", coll)
	}

	path := filepath.Join(l.dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", path, err)
	}

	docs, err := Decode(data)
	if err != nil {
		return fmt.Errorf("fixture %s: %w", path, err)
	}
	if err := ConvertDates(docs); err != nil {
		return fmt.Errorf("fixture %s: %w", path, err)
	}
	if len(docs) == 0 {
		l.logger.Warn("fixture file is empty", zap.String("path", path))
		return nil
	}

	payload := make([]any, len(docs))
	for i, doc := range docs {
		payload[i] = doc
	}

	res, err := l.conns.Database.Collection(coll).InsertMany(ctx, payload)
	if err != nil {
		return fmt.Errorf("insert fixtures into %s: %w", coll, err)
	}

	l.logger.Info("fixtures loaded",
		zap.String("collection", coll),
		zap.Int("count", len(res.InsertedIDs)),
	)
	return nil
}
