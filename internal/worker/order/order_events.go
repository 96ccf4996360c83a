package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
	"github.com/Additional-Code/bazaar/internal/messaging"
	ordersvc "github.com/Additional-Code/bazaar/internal/service/order"
	"github.com/Additional-Code/bazaar/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/bazaar/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventsHandler sets up a worker handler for the orders topic. Both
// order-created events and forwarded change-stream events flow through it;
// anything that does not decode as a created event is logged raw.
func NewOrderEventsHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.CreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.OrderID == 0 {
			if err != nil {
				span.SetStatus(codes.Error, "decode error")
			}
			logger.Info("orders event received",
				zap.String("key", string(msg.Key)),
				zap.ByteString("payload", msg.Value),
			)
			return nil
		}

		logger.Info("order created event processed",
			zap.Int64("order_id", event.OrderID),
			zap.Int64("customer_id", event.CustomerID),
			zap.String("status", event.Status),
			zap.Int("items", event.ItemCount),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
