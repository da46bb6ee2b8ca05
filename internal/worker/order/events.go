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

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/messaging"
	ordersvc "github.com/Additional-Code/oficina/internal/service/order"
	"github.com/Additional-Code/oficina/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/oficina/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewLifecycleHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewLifecycleHandler consumes service order lifecycle events from the orders topic.
func NewLifecycleHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: lifecycleHandler(logger),
	}
}

func lifecycleHandler(logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.service_orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode service order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(
			attribute.String("service_order.event", event.Type),
			attribute.String("service_order.id", event.OrderID),
		)

		fields := []zap.Field{
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Int("numero", event.Number),
			zap.Int("ano", event.Year),
			zap.String("status", string(event.Status)),
			zap.String("valor_total", event.Total),
		}

		switch event.Type {
		case ordersvc.EventCreated:
			logger.Info("service order created", fields...)
		case ordersvc.EventUpdated:
			logger.Info("service order updated", fields...)
		case ordersvc.EventStatusChanged:
			fields = append(fields, zap.String("status_anterior", string(event.PreviousStatus)))
			logger.Info("service order status changed", fields...)
		default:
			// Unknown types are acknowledged.
			logger.Warn("unknown service order event", fields...)
		}

		return nil
	}
}
