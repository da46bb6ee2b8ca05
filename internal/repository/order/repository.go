package order

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrVersionConflict is returned when the order changed since it was loaded.
	ErrVersionConflict = errors.New("order version conflict")
	// ErrDuplicateNumber is returned when (year, number) is already taken.
	ErrDuplicateNumber = errors.New("order number already taken")
)

// Filter narrows List results.
type Filter struct {
	Status entity.OrderStatus
	Search string
	Year   int
	Limit  int
	Offset int
}

// Repository encapsulates read/write access for service orders.
type Repository struct {
	db     *bun.DB
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		db:     conns.Writer,
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// RunInTx runs fn in a writer transaction, committing when fn returns nil.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, fn)
}

// WithTx returns a repository bound to tx for both reads and writes.
func (r *Repository) WithTx(tx bun.IDB) *Repository {
	return &Repository{db: r.db, writer: tx, reader: tx}
}

// Insert persists the order header and all of its line items. Line items get
// their order id and position assigned here.
func (r *Repository) Insert(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Insert", trace.WithAttributes(
		attribute.Int("order.year", order.Year),
		attribute.Int("order.number", order.Number),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(order).Exec(ctx); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateNumber
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	if err := r.insertServiceItems(ctx, order.ID, order.ServiceItems); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert service items failed")
		return err
	}
	if err := r.insertPartItems(ctx, order.ID, order.PartItems); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert part items failed")
		return err
	}
	return nil
}

// GetByID fetches a fully hydrated order: client, vehicle and line items with
// their catalog records.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().
		Model(order).
		Relation("Client").
		Relation("Vehicle").
		Relation("ServiceItems", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Relation("Service").OrderExpr("osi.position ASC")
		}).
		Relation("PartItems", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Relation("Part").OrderExpr("opi.position ASC")
		}).
		Where("so.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	if order.VehicleID == nil {
		order.Vehicle = nil
	}
	return order, nil
}

// List returns order headers with client and vehicle, newest numbers first.
func (r *Repository) List(ctx context.Context, f Filter) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(
		attribute.String("filter.status", string(f.Status)),
		attribute.Int("filter.year", f.Year),
	))
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().
		Model(&orders).
		Relation("Client").
		Relation("Vehicle").
		OrderExpr("so.year DESC, so.number DESC")

	if f.Status != "" {
		q = q.Where("so.status = ?", f.Status)
	}
	if f.Year > 0 {
		q = q.Where("so.year = ?", f.Year)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("LOWER(client.name) LIKE ?", "%"+strings.ToLower(search)+"%")
			if n, err := strconv.Atoi(search); err == nil {
				q = q.WhereOr("so.number = ?", n)
			}
			return q
		})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	for _, o := range orders {
		if o.VehicleID == nil {
			o.Vehicle = nil
		}
	}
	return orders, nil
}

// UpdateHeader writes every mutable header column, guarded by the version the
// caller loaded. On success order.Version is advanced.
func (r *Repository) UpdateHeader(ctx context.Context, order *entity.Order) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateHeader", trace.WithAttributes(attribute.String("order.id", order.ID)))
	defer span.End()

	loaded := order.Version
	order.Version = loaded + 1

	res, err := r.writer.NewUpdate().
		Model(order).
		ExcludeColumn("id", "number", "year", "created_at").
		Where("id = ?", order.ID).
		Where("version = ?", loaded).
		Exec(ctx)
	if err != nil {
		order.Version = loaded
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		order.Version = loaded
		return err
	}
	if affected == 0 {
		order.Version = loaded
		span.SetStatus(codes.Error, "version conflict")
		return ErrVersionConflict
	}
	return nil
}

// ReplaceServiceItems discards every service line of the order and inserts items.
func (r *Repository) ReplaceServiceItems(ctx context.Context, orderID string, items []*entity.ServiceItem) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ReplaceServiceItems", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.Int("items.count", len(items)),
	))
	defer span.End()

	if _, err := r.writer.NewDelete().Model((*entity.ServiceItem)(nil)).Where("order_id = ?", orderID).Exec(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return r.insertServiceItems(ctx, orderID, items)
}

// ReplacePartItems discards every part line of the order and inserts items.
func (r *Repository) ReplacePartItems(ctx context.Context, orderID string, items []*entity.PartItem) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ReplacePartItems", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.Int("items.count", len(items)),
	))
	defer span.End()

	if _, err := r.writer.NewDelete().Model((*entity.PartItem)(nil)).Where("order_id = ?", orderID).Exec(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return r.insertPartItems(ctx, orderID, items)
}

// Delete removes the order and its lines. The year sequence is left untouched.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if _, err := r.writer.NewDelete().Model((*entity.ServiceItem)(nil)).Where("order_id = ?", id).Exec(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := r.writer.NewDelete().Model((*entity.PartItem)(nil)).Where("order_id = ?", id).Exec(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	res, err := r.writer.NewDelete().Model((*entity.Order)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) insertServiceItems(ctx context.Context, orderID string, items []*entity.ServiceItem) error {
	if len(items) == 0 {
		return nil
	}
	for i, item := range items {
		item.OrderID = orderID
		item.Position = i + 1
	}
	_, err := r.writer.NewInsert().Model(&items).Exec(ctx)
	return err
}

func (r *Repository) insertPartItems(ctx context.Context, orderID string, items []*entity.PartItem) error {
	if len(items) == 0 {
		return nil
	}
	for i, item := range items {
		item.OrderID = orderID
		item.Position = i + 1
	}
	_, err := r.writer.NewInsert().Model(&items).Exec(ctx)
	return err
}
