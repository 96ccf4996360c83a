// Package watch tails the orders change stream, logging every event and
// forwarding it to the message bus. Delivery of the stream itself is owned
// by the database server.
package watch

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/database"
	"github.com/Additional-Code/bazaar/internal/messaging"
)

// Module provides the watcher to Fx.
var Module = fx.Provide(NewWatcher)

// event is the subset of a change event the watcher inspects before
// forwarding the full document downstream.
type event struct {
	OperationType string   `bson:"operationType"`
	FullDocument  bson.Raw `bson:"fullDocument"`
	DocumentKey   bson.Raw `bson:"documentKey"`
}

// Watcher consumes the orders change stream.
type Watcher struct {
	conns     *database.Connections
	logger    *zap.Logger
	publisher messaging.Client
}

// NewWatcher wires a Watcher over the orders collection.
func NewWatcher(conns *database.Connections, logger *zap.Logger, publisher messaging.Client) *Watcher {
	return &Watcher{conns: conns, logger: logger, publisher: publisher}
}

// Run blocks consuming change events until ctx is cancelled. Each event is
// logged and published to the configured topic as extended JSON.
func (w *Watcher) Run(ctx context.Context) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := w.conns.Orders().Watch(ctx, bson.A{}, opts)
	if err != nil {
		return fmt.Errorf("open change stream: %w", err)
	}
	defer stream.Close(context.Background())

	w.logger.Info("watching orders collection for changes")

	for stream.Next(ctx) {
		var ev event
		if err := stream.Decode(&ev); err != nil {
			w.logger.Error("decode change event", zap.Error(err))
			continue
		}

		w.logger.Info("change detected",
			zap.String("operation", ev.OperationType),
			zap.String("document_key", ev.DocumentKey.String()),
		)

		w.forward(ctx, ev)
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("change stream: %w", err)
	}
	return nil
}

func (w *Watcher) forward(ctx context.Context, ev event) {
	if w.publisher == nil {
		return
	}
	payload, err := bson.MarshalExtJSON(stripped(ev), false, false)
	if err != nil {
		w.logger.Error("encode change event", zap.Error(err))
		return
	}
	key := []byte("orders-change-" + ev.OperationType)
	if err := w.publisher.Publish(ctx, key, payload); err != nil {
		w.logger.Error("publish change event", zap.Error(err))
	}
}

func stripped(ev event) bson.D {
	doc := bson.D{{Key: "operation_type", Value: ev.OperationType}}
	if len(ev.DocumentKey) > 0 {
		doc = append(doc, bson.E{Key: "document_key", Value: ev.DocumentKey})
	}
	if len(ev.FullDocument) > 0 {
		doc = append(doc, bson.E{Key: "full_document", Value: ev.FullDocument})
	}
	return doc
}
