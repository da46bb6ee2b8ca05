package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/entity"
	ordersvc "github.com/Additional-Code/oficina/internal/service/order"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	orders *ordersvc.Service
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, orders *ordersvc.Service, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: conns.Writer, orders: orders, logger: logger, now: time.Now}
}

// Run seeds the catalog and, on an empty order table, one sample order.
// Running it again is harmless.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.Catalog(ctx); err != nil {
		return err
	}
	return s.SampleOrder(ctx)
}

// Catalog inserts the demo clients, vehicles, services and parts. Rows that
// already exist are left untouched.
func (s *Seeder) Catalog(ctx context.Context) error {
	now := s.now().UTC()
	ptr := func(v string) *string { return &v }

	clients := []entity.Client{
		{ID: "seed-client-1", Name: "Maria Souza", Phone: ptr("+55 11 98888-1000"), CreatedAt: now, UpdatedAt: now},
		{ID: "seed-client-2", Name: "João Lima", Email: ptr("joao.lima@example.com"), CreatedAt: now, UpdatedAt: now},
	}
	vehicles := []entity.Vehicle{
		{ID: "seed-vehicle-1", ClientID: "seed-client-1", Plate: "ABC1D23", Brand: ptr("Volkswagen"), Model: ptr("Gol"), CreatedAt: now, UpdatedAt: now},
		{ID: "seed-vehicle-2", ClientID: "seed-client-2", Plate: "XYZ9K87", Brand: ptr("Fiat"), Model: ptr("Uno"), CreatedAt: now, UpdatedAt: now},
	}
	services := []entity.Service{
		{ID: "seed-service-1", Name: "Troca de óleo", Price: decimal.RequireFromString("50.00"), CreatedAt: now, UpdatedAt: now},
		{ID: "seed-service-2", Name: "Alinhamento e balanceamento", Price: decimal.RequireFromString("120.00"), CreatedAt: now, UpdatedAt: now},
	}
	parts := []entity.Part{
		{ID: "seed-part-1", Code: "FLT-OLEO-01", Name: "Filtro de óleo", Price: decimal.RequireFromString("30.00"), Stock: 20, CreatedAt: now, UpdatedAt: now},
		{ID: "seed-part-2", Code: "OLEO-5W30", Name: "Óleo 5W30 (litro)", Price: decimal.RequireFromString("42.90"), Stock: 50, CreatedAt: now, UpdatedAt: now},
	}

	for _, batch := range []struct {
		name  string
		model any
	}{
		{name: "clients", model: &clients},
		{name: "vehicles", model: &vehicles},
		{name: "services", model: &services},
		{name: "parts", model: &parts},
	} {
		if _, err := s.db.NewInsert().Model(batch.model).Ignore().Exec(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", batch.name, err)
		}
	}

	s.logger.Info("seeded catalog",
		zap.Int("clients", len(clients)),
		zap.Int("vehicles", len(vehicles)),
		zap.Int("services", len(services)),
		zap.Int("parts", len(parts)),
	)
	return nil
}

// SampleOrder opens one order through the order service when none exist yet.
func (s *Seeder) SampleOrder(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count orders: %w", err)
	}
	if count > 0 {
		s.logger.Info("orders already present; skipping sample order", zap.Int("count", count))
		return nil
	}

	vehicle := "seed-vehicle-1"
	defect := "Barulho ao frear"
	order, err := s.orders.Create(ctx, ordersvc.CreateInput{
		ClientID:       "seed-client-1",
		VehicleID:      &vehicle,
		ReportedDefect: &defect,
		DiscountType:   string(entity.DiscountAmount),
		Discount:       decimal.RequireFromString("10"),
		ServiceItems: []ordersvc.LineInput{
			{RefID: "seed-service-1", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("50.00")},
		},
		PartItems: []ordersvc.LineInput{
			{RefID: "seed-part-1", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("30.00")},
			{RefID: "seed-part-2", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("42.90")},
		},
	})
	if err != nil {
		return fmt.Errorf("seed sample order: %w", err)
	}

	s.logger.Info("seeded sample order",
		zap.String("id", order.ID),
		zap.Int("numero", order.Number),
		zap.Int("ano", order.Year),
	)
	return nil
}
