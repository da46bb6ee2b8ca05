package order

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/presentation/http/response"
	service "github.com/Additional-Code/oficina/internal/service/order"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/order")

const msgInvalidBody = "Corpo da requisição inválido."

//go:generate mockgen -source=handler.go -destination=mocks/service.go -package=mocks

// Service is the order engine as seen by the HTTP layer.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*entity.Order, error)
	Update(ctx context.Context, id string, in service.UpdateInput) (*entity.Order, error)
	SetStatus(ctx context.Context, id, status string) (*entity.Order, error)
	Get(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, f service.ListFilter) ([]*entity.Order, error)
	Delete(ctx context.Context, id string) error
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/ordens-servico")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.PATCH("/:id/status", h.setStatus)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest(msgInvalidBody, errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "ordens.create", trace.WithAttributes(
		attribute.String("client.id", req.ClienteID),
		attribute.Int("items.services", len(req.ItemsServicos)),
		attribute.Int("items.parts", len(req.ItemsPecas)),
	))
	defer span.End()

	order, err := h.svc.Create(ctx, req.input())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var req updateOrderRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest(msgInvalidBody, errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "ordens.update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Update(ctx, id, req.input())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) setStatus(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest(msgInvalidBody, errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "ordens.setStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", req.Status),
	))
	defer span.End()

	order, err := h.svc.SetStatus(ctx, id, req.Status)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "ordens.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	filter := service.ListFilter{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("busca"),
	}
	var err error
	if filter.Year, err = intQuery(c, "ano"); err != nil {
		return b.WithError(err).Build()
	}
	if filter.Limit, err = intQuery(c, "limite"); err != nil {
		return b.WithError(err).Build()
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "ordens.list", trace.WithAttributes(
		attribute.String("filter.status", filter.Status),
		attribute.Int("filter.year", filter.Year),
	))
	defer span.End()

	orders, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.MapSlice(orders, dto.NewOrderSummary)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "ordens.delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusNoContent).Build()
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errorbank.BadRequest(name+" deve ser um número inteiro.", errorbank.WithCause(err))
	}
	return v, nil
}
