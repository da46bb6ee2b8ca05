package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/Additional-Code/oficina/internal/database/dbtest"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/repository/catalog"
	"github.com/Additional-Code/oficina/internal/repository/order"
)

type fixture struct {
	repo    *order.Repository
	client  *entity.Client
	service *entity.Service
	part    *entity.Part
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conns := dbtest.New(t)
	ctx := context.Background()
	now := time.Now().UTC()

	cat := catalog.NewRepository(conns)
	client := &entity.Client{ID: uuid.NewString(), Name: "Maria Souza", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, cat.CreateClient(ctx, client))
	svc := &entity.Service{ID: uuid.NewString(), Name: "Troca de óleo", Price: decimal.RequireFromString("50"), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, cat.CreateService(ctx, svc))
	part := &entity.Part{ID: uuid.NewString(), Code: "FLT-01", Name: "Filtro", Price: decimal.RequireFromString("15"), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, cat.CreatePart(ctx, part))

	return &fixture{repo: order.NewRepository(conns), client: client, service: svc, part: part}
}

// create issues the next number for year and inserts a minimal order in one transaction.
func (f *fixture) create(t *testing.T, year int, build func(o *entity.Order)) *entity.Order {
	t.Helper()
	now := time.Now().UTC()
	o := &entity.Order{
		ID:           uuid.NewString(),
		Year:         year,
		Status:       entity.StatusInProgress,
		ClientID:     f.client.ID,
		DiscountType: entity.DiscountAmount,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if build != nil {
		build(o)
	}
	err := f.repo.RunInTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		r := f.repo.WithTx(tx)
		n, err := r.NextNumber(ctx, year)
		if err != nil {
			return err
		}
		o.Number = n
		return r.Insert(ctx, o)
	})
	require.NoError(t, err)
	return o
}

func TestNextNumberPerYear(t *testing.T) {
	f := newFixture(t)

	a := f.create(t, 2024, nil)
	b := f.create(t, 2024, nil)
	c := f.create(t, 2025, nil)
	d := f.create(t, 2024, nil)

	assert.Equal(t, 1, a.Number)
	assert.Equal(t, 2, b.Number)
	assert.Equal(t, 1, c.Number)
	assert.Equal(t, 3, d.Number)
}

func TestNextNumberNotReusedAfterDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, 2024, nil)
	last := f.create(t, 2024, nil)
	require.NoError(t, f.repo.Delete(ctx, last.ID))

	next := f.create(t, 2024, nil)
	assert.Equal(t, 3, next.Number)
}

func TestInsertRejectsDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, 2024, nil)
	dup := &entity.Order{
		ID:           uuid.NewString(),
		Number:       first.Number,
		Year:         2024,
		Status:       entity.StatusInProgress,
		ClientID:     f.client.ID,
		DiscountType: entity.DiscountAmount,
		Version:      1,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	assert.ErrorIs(t, f.repo.Insert(ctx, dup), order.ErrDuplicateNumber)
}

func TestGetByIDHydratesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.create(t, 2024, func(o *entity.Order) {
		o.ServiceItems = []*entity.ServiceItem{
			{ID: uuid.NewString(), ServiceID: f.service.ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), Total: decimal.NewFromInt(100)},
		}
		o.PartItems = []*entity.PartItem{
			{ID: uuid.NewString(), PartID: f.part.ID, QuantityUsed: decimal.NewFromInt(1), UnitPriceUsed: decimal.NewFromInt(15), Total: decimal.NewFromInt(15)},
			{ID: uuid.NewString(), PartID: f.part.ID, QuantityUsed: decimal.NewFromInt(1), UnitPriceUsed: decimal.NewFromInt(15), Total: decimal.NewFromInt(15)},
		}
	})

	got, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	require.NotNil(t, got.Client)
	assert.Equal(t, "Maria Souza", got.Client.Name)
	assert.Nil(t, got.Vehicle)

	require.Len(t, got.ServiceItems, 1)
	require.NotNil(t, got.ServiceItems[0].Service)
	assert.Equal(t, "Troca de óleo", got.ServiceItems[0].Service.Name)
	assert.Equal(t, "100.00", got.ServiceItems[0].Total.StringFixed(2))

	require.Len(t, got.PartItems, 2)
	assert.Equal(t, 1, got.PartItems[0].Position)
	assert.Equal(t, 2, got.PartItems[1].Position)
	require.NotNil(t, got.PartItems[0].Part)
	assert.Equal(t, "FLT-01", got.PartItems[0].Part.Code)
}

func TestGetByIDNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestReplaceItemsDiscardsPreviousLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.create(t, 2024, func(o *entity.Order) {
		o.ServiceItems = []*entity.ServiceItem{
			{ID: uuid.NewString(), ServiceID: f.service.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50), Total: decimal.NewFromInt(50)},
			{ID: uuid.NewString(), ServiceID: f.service.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50), Total: decimal.NewFromInt(50)},
		}
	})

	replacement := []*entity.ServiceItem{
		{ID: uuid.NewString(), ServiceID: f.service.ID, Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(30)},
	}
	require.NoError(t, f.repo.ReplaceServiceItems(ctx, created.ID, replacement))
	require.NoError(t, f.repo.ReplacePartItems(ctx, created.ID, nil))

	got, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.ServiceItems, 1)
	assert.Equal(t, replacement[0].ID, got.ServiceItems[0].ID)
	assert.Empty(t, got.PartItems)
}

func TestUpdateHeaderVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.create(t, 2024, nil)

	first, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	stale, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	first.Status = entity.StatusCancelled
	require.NoError(t, f.repo.UpdateHeader(ctx, first))
	assert.EqualValues(t, 2, first.Version)

	stale.Status = entity.StatusCompleted
	assert.ErrorIs(t, f.repo.UpdateHeader(ctx, stale), order.ErrVersionConflict)
	assert.EqualValues(t, 1, stale.Version)

	got, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, got.Status)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, 2023, nil)
	f.create(t, 2024, nil)
	cancelled := f.create(t, 2024, func(o *entity.Order) { o.Status = entity.StatusCancelled })

	all, err := f.repo.List(ctx, order.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2024, all[0].Year)
	assert.Equal(t, 2, all[0].Number)
	assert.Equal(t, 2023, all[2].Year)
	require.NotNil(t, all[0].Client)

	byStatus, err := f.repo.List(ctx, order.Filter{Status: entity.StatusCancelled})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, cancelled.ID, byStatus[0].ID)

	byYear, err := f.repo.List(ctx, order.Filter{Year: 2023})
	require.NoError(t, err)
	assert.Len(t, byYear, 1)

	byName, err := f.repo.List(ctx, order.Filter{Search: "maria"})
	require.NoError(t, err)
	assert.Len(t, byName, 3)

	byNumber, err := f.repo.List(ctx, order.Filter{Search: "2", Year: 2024})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, cancelled.ID, byNumber[0].ID)

	paged, err := f.repo.List(ctx, order.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, 1, paged[0].Number)
	assert.Equal(t, 2024, paged[0].Year)
}

func TestDeleteMissing(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.repo.Delete(context.Background(), uuid.NewString()), order.ErrNotFound)
}
