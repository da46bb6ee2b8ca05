package order

import (
	"context"
	"fmt"

	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// The first call for a year seeds the counter from orders that already exist,
// so databases filled before the counter table keep counting from their max.
const (
	nextNumberUpsert = `INSERT INTO order_sequences (year, last_number)
VALUES (?, COALESCE((SELECT MAX(number) FROM service_orders WHERE year = ?), 0) + 1)
ON CONFLICT (year) DO UPDATE SET last_number = order_sequences.last_number + 1
RETURNING last_number`

	nextNumberUpsertMySQL = `INSERT INTO order_sequences (year, last_number)
VALUES (?, COALESCE((SELECT MAX(number) FROM service_orders WHERE year = ?), 0) + 1)
ON DUPLICATE KEY UPDATE last_number = last_number + 1`

	lastNumberSelect = `SELECT last_number FROM order_sequences WHERE year = ?`
)

// NextNumber atomically issues the next order number for year. It must run on a
// transaction-bound repository together with the Insert that uses the number;
// the counter row stays locked until that transaction ends.
func (r *Repository) NextNumber(ctx context.Context, year int) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.NextNumber", trace.WithAttributes(attribute.Int("order.year", year)))
	defer span.End()

	var next int
	var err error
	if r.writer.Dialect().Name() == dialect.MySQL {
		if _, err = r.writer.NewRaw(nextNumberUpsertMySQL, year, year).Exec(ctx); err == nil {
			err = r.writer.NewRaw(lastNumberSelect, year).Scan(ctx, &next)
		}
	} else {
		err = r.writer.NewRaw(nextNumberUpsert, year, year).Scan(ctx, &next)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sequence failed")
		return 0, fmt.Errorf("next order number for %d: %w", year, err)
	}
	span.SetAttributes(attribute.Int("order.number", next))
	return next, nil
}
