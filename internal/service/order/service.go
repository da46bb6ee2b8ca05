package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/messaging"
	"github.com/Additional-Code/oficina/internal/pricing"
	catalogrepo "github.com/Additional-Code/oficina/internal/repository/catalog"
	repo "github.com/Additional-Code/oficina/internal/repository/order"
	"github.com/Additional-Code/oficina/pkg/errorbank"
	"github.com/Additional-Code/oficina/pkg/optional"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/order")

// MsgNotEditable is returned when an update targets an order that left EM_ANDAMENTO.
const MsgNotEditable = "Apenas pedidos em andamento podem ser editados."

const (
	msgOrderNotFound       = "Ordem de serviço não encontrada."
	msgClientRequired      = "clienteId é obrigatório."
	msgInvalidDiscountType = "tipoDesconto inválido: use VALOR ou PORCENTAGEM."
	msgInvalidStatus       = "status inválido: use EM_ANDAMENTO, CONCLUIDO ou CANCELADO."
	msgTerminalStatus      = "Ordens de serviço concluídas ou canceladas não podem mudar de status."
	msgVersionConflict     = "A ordem de serviço foi alterada por outra requisição; recarregue e tente novamente."
	msgNumberConflict      = "Não foi possível numerar a ordem de serviço; tente novamente."
	msgInvalidYear         = "ano inválido."
	msgInvalidOffset       = "offset não pode ser negativo."
	msgInvalidVehicleKm    = "veiculoKm não pode ser negativo."
)

// quantityPlaces matches the numeric(12,3) quantity columns.
const quantityPlaces = 3

// Service is the pricing and lifecycle engine for service orders.
type Service struct {
	orders    *repo.Repository
	catalog   *catalogrepo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	limits    config.Orders
	metrics   *instruments

	now   func() time.Time
	newID func() string
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Catalog    *catalogrepo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	metrics, err := newInstruments()
	if err != nil {
		return nil, fmt.Errorf("order metrics: %w", err)
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:    p.Repository,
		catalog:   p.Catalog,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		limits:  p.Config.Orders,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// Create opens a new order in EM_ANDAMENTO with the next number of the current
// year and totals computed from the submitted lines.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("client.id", in.ClientID)))
	defer span.End()

	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		return nil, errorbank.BadRequest(msgClientRequired)
	}
	discountType, ok := entity.ParseDiscountType(in.DiscountType)
	if !ok {
		return nil, errorbank.BadRequest(msgInvalidDiscountType)
	}
	if in.VehicleKm != nil && *in.VehicleKm < 0 {
		return nil, errorbank.BadRequest(msgInvalidVehicleKm)
	}
	services := normalize(in.ServiceItems)
	parts := normalize(in.PartItems)
	if err := validateLines(services, parts, discountType, in.Discount); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &entity.Order{
		ID:             s.newID(),
		Year:           now.Year(),
		Status:         entity.StatusInProgress,
		ClientID:       clientID,
		VehicleID:      normalizeID(in.VehicleID),
		Notes:          in.Notes,
		VehicleKm:      in.VehicleKm,
		VehicleFuel:    in.VehicleFuel,
		ReportedDefect: in.ReportedDefect,
		VehicleNotes:   in.VehicleNotes,
		DiscountType:   discountType,
		Discount:       pricing.Round(in.Discount),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		ServiceItems:   s.serviceItems(services),
		PartItems:      s.partItems(parts),
	}
	if err := applyTotals(order, pricing.Compute(lines(services), lines(parts), discountType, order.Discount)); err != nil {
		return nil, err
	}

	var created *entity.Order
	err := s.orders.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		err := checkReferences(ctx, s.catalog.WithTx(tx), references{
			clientID:     clientID,
			checkClient:  true,
			vehicleID:    order.VehicleID,
			checkVehicle: true,
			services:     services,
			parts:        parts,
		})
		if err != nil {
			return err
		}

		orders := s.orders.WithTx(tx)
		number, err := orders.NextNumber(ctx, order.Year)
		if err != nil {
			return err
		}
		order.Number = number
		if err := orders.Insert(ctx, order); err != nil {
			return err
		}
		created, err = orders.GetByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, s.translate(span, "create", err)
	}

	span.SetAttributes(attribute.Int("order.number", created.Number), attribute.Int("order.year", created.Year))
	s.logger.Info("service order created",
		zap.String("id", created.ID),
		zap.Int("number", created.Number),
		zap.Int("year", created.Year),
	)
	s.metrics.created.Add(ctx, 1)
	s.refreshCache(ctx, created)
	s.publish(ctx, newEvent(EventCreated, created, now))
	return created, nil
}

// Update applies a partial update to an editable order. Totals are recomputed
// when lines or the discount change, using the persisted lines for any set not
// supplied. Supplied line sets replace the persisted ones entirely.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	var updated *entity.Order
	err := s.orders.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		orders := s.orders.WithTx(tx)
		current, err := orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return errorbank.InvalidState(MsgNotEditable)
		}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != current.Version {
			return errorbank.Conflict(msgVersionConflict)
		}

		if err := s.merge(ctx, s.catalog.WithTx(tx), current, in); err != nil {
			return err
		}
		current.UpdatedAt = s.now().UTC()

		if in.ServiceItems.Set {
			if err := orders.ReplaceServiceItems(ctx, current.ID, current.ServiceItems); err != nil {
				return err
			}
		}
		if in.PartItems.Set {
			if err := orders.ReplacePartItems(ctx, current.ID, current.PartItems); err != nil {
				return err
			}
		}
		if err := orders.UpdateHeader(ctx, current); err != nil {
			return err
		}
		updated, err = orders.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.translate(span, "update", err)
	}

	s.logger.Info("service order updated",
		zap.String("id", updated.ID),
		zap.Int64("version", updated.Version),
		zap.Bool("recomputed", in.recomputes()),
	)
	s.metrics.updated.Add(ctx, 1)
	s.refreshCache(ctx, updated)
	s.publish(ctx, newEvent(EventUpdated, updated, updated.UpdatedAt))
	return updated, nil
}

// merge applies in onto order. Nothing is written here.
func (s *Service) merge(ctx context.Context, cat *catalogrepo.Repository, order *entity.Order, in UpdateInput) error {
	if in.ClientID.Set {
		clientID := strings.TrimSpace(in.ClientID.Value)
		if in.ClientID.Null || clientID == "" {
			return errorbank.BadRequest(msgClientRequired)
		}
		order.ClientID = clientID
	}
	if in.VehicleID.Set {
		order.VehicleID = normalizeID(in.VehicleID.Ptr())
	}
	assign(&order.Notes, in.Notes)
	if in.VehicleKm.HasValue() && in.VehicleKm.Value < 0 {
		return errorbank.BadRequest(msgInvalidVehicleKm)
	}
	assign(&order.VehicleKm, in.VehicleKm)
	assign(&order.VehicleFuel, in.VehicleFuel)
	assign(&order.ReportedDefect, in.ReportedDefect)
	assign(&order.VehicleNotes, in.VehicleNotes)

	discountType := order.DiscountType
	if in.DiscountType.Set {
		parsed, ok := entity.ParseDiscountType(in.DiscountType.Or(""))
		if !ok {
			return errorbank.BadRequest(msgInvalidDiscountType)
		}
		discountType = parsed
	}
	discount := order.Discount
	if in.Discount.Set {
		discount = in.Discount.Or(decimal.Zero)
	}

	services := normalize(in.ServiceItems.Or(nil))
	parts := normalize(in.PartItems.Or(nil))
	if err := validateLines(services, parts, discountType, discount); err != nil {
		return err
	}

	err := checkReferences(ctx, cat, references{
		clientID:     order.ClientID,
		checkClient:  in.ClientID.Set,
		vehicleID:    order.VehicleID,
		checkVehicle: in.ClientID.Set || in.VehicleID.Set,
		services:     services,
		parts:        parts,
	})
	if err != nil {
		return err
	}

	if in.ServiceItems.Set {
		order.ServiceItems = s.serviceItems(services)
	}
	if in.PartItems.Set {
		order.PartItems = s.partItems(parts)
	}
	order.DiscountType = discountType
	order.Discount = pricing.Round(discount)

	if in.recomputes() {
		return applyTotals(order, pricing.Compute(
			persistedServiceLines(order.ServiceItems),
			persistedPartLines(order.PartItems),
			order.DiscountType,
			order.Discount,
		))
	}
	return nil
}

// SetStatus moves an order out of EM_ANDAMENTO. Setting the current status again
// is a no-op; terminal orders cannot change status.
func (s *Service) SetStatus(ctx context.Context, id, raw string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.SetStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", raw),
	))
	defer span.End()

	status, ok := entity.ParseOrderStatus(raw)
	if !ok {
		return nil, errorbank.BadRequest(msgInvalidStatus)
	}

	now := s.now().UTC()
	var (
		result   *entity.Order
		previous entity.OrderStatus
		changed  bool
	)
	err := s.orders.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		orders := s.orders.WithTx(tx)
		current, err := orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous = current.Status
		if current.Status == status {
			result = current
			return nil
		}
		if current.Status.Terminal() {
			return errorbank.InvalidState(msgTerminalStatus)
		}

		current.Status = status
		if status == entity.StatusCompleted {
			current.CompletedAt = &now
		}
		current.UpdatedAt = now
		if err := orders.UpdateHeader(ctx, current); err != nil {
			return err
		}
		changed = true
		result, err = orders.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.translate(span, "set_status", err)
	}
	if !changed {
		return result, nil
	}

	s.logger.Info("service order status changed",
		zap.String("id", result.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(result.Status)),
	)
	s.metrics.statusChanged(ctx, string(previous), string(result.Status))
	s.refreshCache(ctx, result)
	event := newEvent(EventStatusChanged, result, now)
	event.PreviousStatus = previous
	s.publish(ctx, event)
	return result, nil
}

// Get retrieves a hydrated order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.getFromCache(ctx, id)
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return order, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	order, err = s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, "get", err)
	}
	s.refreshCache(ctx, order)
	return order, nil
}

// List returns order headers matching f, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	filter := repo.Filter{Search: f.Search, Year: f.Year, Offset: f.Offset, Limit: f.Limit}
	if raw := strings.TrimSpace(f.Status); raw != "" {
		status, ok := entity.ParseOrderStatus(raw)
		if !ok {
			return nil, errorbank.BadRequest(msgInvalidStatus)
		}
		filter.Status = status
	}
	if f.Year < 0 {
		return nil, errorbank.BadRequest(msgInvalidYear)
	}
	if f.Offset < 0 {
		return nil, errorbank.BadRequest(msgInvalidOffset)
	}
	if filter.Limit <= 0 {
		filter.Limit = s.limits.DefaultListLimit
	}
	if s.limits.MaxListLimit > 0 && filter.Limit > s.limits.MaxListLimit {
		filter.Limit = s.limits.MaxListLimit
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.translate(span, "list", err)
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

// Delete removes an order with its lines. Its number is not issued again.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	err := s.orders.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.orders.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return s.translate(span, "delete", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
			s.logger.Warn("orders cache invalidation failed", zap.String("id", id), zap.Error(err))
		}
	}
	s.logger.Info("service order deleted", zap.String("id", id))
	return nil
}

// translate maps repository failures onto AppErrors. Unknown failures are
// logged and hidden behind the generic internal message.
func (s *Service) translate(span trace.Span, op string, err error) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
		span.SetStatus(codes.Error, string(appErr.Kind()))
		return appErr
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound(msgOrderNotFound)
	case errors.Is(err, repo.ErrVersionConflict):
		span.SetStatus(codes.Error, "version conflict")
		return errorbank.Conflict(msgVersionConflict)
	case errors.Is(err, repo.ErrDuplicateNumber):
		span.SetStatus(codes.Error, "number conflict")
		return errorbank.Conflict(msgNumberConflict)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	s.logger.Error("service order operation failed", zap.String("operation", op), zap.Error(err))
	return errorbank.Internal(errorbank.InternalMessage, errorbank.WithCause(err))
}

func (s *Service) serviceItems(in []LineInput) []*entity.ServiceItem {
	items := make([]*entity.ServiceItem, 0, len(in))
	for _, l := range in {
		items = append(items, &entity.ServiceItem{
			ID:        s.newID(),
			ServiceID: l.RefID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.line().Total(),
		})
	}
	return items
}

func (s *Service) partItems(in []LineInput) []*entity.PartItem {
	items := make([]*entity.PartItem, 0, len(in))
	for _, l := range in {
		items = append(items, &entity.PartItem{
			ID:            s.newID(),
			PartID:        l.RefID,
			QuantityUsed:  l.Quantity,
			UnitPriceUsed: l.UnitPrice,
			Total:         l.line().Total(),
		})
	}
	return items
}

func (s *Service) cacheKey(id string) string {
	return "ordens:" + id
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	var order entity.Order
	if err := cache.GetJSON(ctx, s.cache, s.cacheKey(id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) refreshCache(ctx context.Context, order *entity.Order) {
	if s.cache == nil || order == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, s.cacheKey(order.ID), order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}
}

// applyTotals copies t onto order, or rejects totals too large to persist.
func applyTotals(order *entity.Order, t pricing.Totals) error {
	if err := pricing.CheckTotals(t); err != nil {
		return errorbank.BadRequest(err.Error())
	}
	order.ServicesTotal = t.ServicesTotal
	order.PartsTotal = t.PartsTotal
	order.Subtotal = t.Subtotal
	order.DiscountAmount = t.DiscountAmount
	order.Total = t.Total
	return nil
}

// normalize trims ids and rounds values to their column precision so persisted
// lines recompute to the same totals.
func normalize(in []LineInput) []LineInput {
	out := make([]LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, LineInput{
			RefID:     strings.TrimSpace(l.RefID),
			Quantity:  l.Quantity.Round(quantityPlaces),
			UnitPrice: pricing.Round(l.UnitPrice),
		})
	}
	return out
}

func validateLines(services, parts []LineInput, discountType entity.DiscountType, discount decimal.Decimal) error {
	var problems pricing.Problems
	for i, l := range services {
		if l.RefID == "" {
			problems = append(problems, fmt.Sprintf("serviço %d: servicoId é obrigatório", i+1))
		}
	}
	for i, l := range parts {
		if l.RefID == "" {
			problems = append(problems, fmt.Sprintf("peça %d: pecaId é obrigatório", i+1))
		}
	}
	if err := pricing.Validate(lines(services), lines(parts), discountType, discount); err != nil {
		p, _ := pricing.AsProblems(err)
		problems = append(problems, p...)
	}
	if len(problems) == 0 {
		return nil
	}
	return errorbank.BadRequest(problems.Error())
}

func persistedServiceLines(items []*entity.ServiceItem) []pricing.Line {
	out := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return out
}

func persistedPartLines(items []*entity.PartItem) []pricing.Line {
	out := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Line{Quantity: it.QuantityUsed, UnitPrice: it.UnitPriceUsed})
	}
	return out
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func assign[T any](dst **T, f optional.Field[T]) {
	if f.Set {
		*dst = f.Ptr()
	}
}
