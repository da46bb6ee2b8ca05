package order

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Additional-Code/oficina/service/order"

type instruments struct {
	created       metric.Int64Counter
	updated       metric.Int64Counter
	statusChanges metric.Int64Counter
}

func newInstruments() (*instruments, error) {
	meter := otel.Meter(meterName)

	created, err := meter.Int64Counter("service_orders.created", metric.WithDescription("Service orders opened"))
	if err != nil {
		return nil, err
	}
	updated, err := meter.Int64Counter("service_orders.updated", metric.WithDescription("Service order updates applied"))
	if err != nil {
		return nil, err
	}
	statusChanges, err := meter.Int64Counter("service_orders.status_changes", metric.WithDescription("Service order status transitions"))
	if err != nil {
		return nil, err
	}
	return &instruments{created: created, updated: updated, statusChanges: statusChanges}, nil
}

func (i *instruments) statusChanged(ctx context.Context, from, to string) {
	i.statusChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
