package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/presentation/http/response"
	service "github.com/Additional-Code/oficina/internal/service/catalog"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/catalog")

// Handler exposes client, vehicle, part and service endpoints.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	clients := e.Group("/clientes")
	clients.POST("", h.createClient)
	clients.GET("", h.listClients)
	clients.GET("/:id", h.getClient)

	vehicles := e.Group("/veiculos")
	vehicles.POST("", h.createVehicle)
	vehicles.GET("", h.listVehicles)
	vehicles.GET("/:id", h.getVehicle)

	parts := e.Group("/pecas")
	parts.POST("", h.createPart)
	parts.GET("", h.listParts)
	parts.GET("/:id", h.getPart)

	services := e.Group("/servicos")
	services.POST("", h.createService)
	services.GET("", h.listServices)
	services.GET("/:id", h.getService)
}

type clientRequest struct {
	Nome      string  `json:"nome" validate:"required"`
	Documento *string `json:"documento"`
	Telefone  *string `json:"telefone"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

type vehicleRequest struct {
	ClienteID string  `json:"clienteId" validate:"required"`
	Placa     string  `json:"placa" validate:"required,max=10"`
	Marca     *string `json:"marca"`
	Modelo    *string `json:"modelo"`
	Ano       *int    `json:"ano" validate:"omitempty,gte=1900"`
	Cor       *string `json:"cor"`
}

type partRequest struct {
	Codigo  string          `json:"codigo" validate:"required"`
	Nome    string          `json:"nome" validate:"required"`
	Preco   decimal.Decimal `json:"preco" validate:"gte=0"`
	Estoque int             `json:"estoque" validate:"gte=0"`
}

type serviceRequest struct {
	Nome      string          `json:"nome" validate:"required"`
	Descricao *string         `json:"descricao"`
	Preco     decimal.Decimal `json:"preco" validate:"gte=0"`
}

// bind decodes and validates the body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errorbank.BadRequest("Corpo da requisição inválido.", errorbank.WithCause(err))
	}
	return c.Validate(req)
}

func (h *Handler) createClient(c echo.Context) error {
	b := response.New(c)
	var req clientRequest
	if err := bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}
	ctx, span := httpTracer.Start(c.Request().Context(), "clientes.create")
	defer span.End()

	client, err := h.svc.CreateClient(ctx, service.ClientInput{
		Name:     req.Nome,
		Document: req.Documento,
		Phone:    req.Telefone,
		Email:    req.Email,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewClientResponse(client)).Build()
}

func (h *Handler) listClients(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "clientes.list")
	defer span.End()

	clients, err := h.svc.ListClients(ctx, c.QueryParam("busca"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.MapSlice(clients, dto.NewClientResponse)).Build()
}

func (h *Handler) getClient(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "clientes.getByID")
	defer span.End()

	client, err := h.svc.GetClient(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewClientResponse(client)).Build()
}

func (h *Handler) createVehicle(c echo.Context) error {
	b := response.New(c)
	var req vehicleRequest
	if err := bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}
	ctx, span := httpTracer.Start(c.Request().Context(), "veiculos.create")
	defer span.End()

	vehicle, err := h.svc.CreateVehicle(ctx, service.VehicleInput{
		ClientID:  req.ClienteID,
		Plate:     req.Placa,
		Brand:     req.Marca,
		Model:     req.Modelo,
		ModelYear: req.Ano,
		Color:     req.Cor,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewVehicleResponse(vehicle)).Build()
}

func (h *Handler) listVehicles(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "veiculos.list")
	defer span.End()

	vehicles, err := h.svc.ListVehicles(ctx, c.QueryParam("clienteId"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.MapSlice(vehicles, dto.NewVehicleResponse)).Build()
}

func (h *Handler) getVehicle(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "veiculos.getByID")
	defer span.End()

	vehicle, err := h.svc.GetVehicle(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewVehicleResponse(vehicle)).Build()
}

func (h *Handler) createPart(c echo.Context) error {
	b := response.New(c)
	var req partRequest
	if err := bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}
	ctx, span := httpTracer.Start(c.Request().Context(), "pecas.create")
	defer span.End()

	part, err := h.svc.CreatePart(ctx, service.PartInput{
		Code:  req.Codigo,
		Name:  req.Nome,
		Price: req.Preco,
		Stock: req.Estoque,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewPartResponse(part)).Build()
}

func (h *Handler) listParts(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "pecas.list")
	defer span.End()

	parts, err := h.svc.ListParts(ctx, c.QueryParam("busca"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.MapSlice(parts, dto.NewPartResponse)).Build()
}

func (h *Handler) getPart(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "pecas.getByID")
	defer span.End()

	part, err := h.svc.GetPart(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewPartResponse(part)).Build()
}

func (h *Handler) createService(c echo.Context) error {
	b := response.New(c)
	var req serviceRequest
	if err := bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}
	ctx, span := httpTracer.Start(c.Request().Context(), "servicos.create")
	defer span.End()

	svc, err := h.svc.CreateService(ctx, service.ServiceInput{
		Name:        req.Nome,
		Description: req.Descricao,
		Price:       req.Preco,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewServiceResponse(svc)).Build()
}

func (h *Handler) listServices(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "servicos.list")
	defer span.End()

	services, err := h.svc.ListServices(ctx, c.QueryParam("busca"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.MapSlice(services, dto.NewServiceResponse)).Build()
}

func (h *Handler) getService(c echo.Context) error {
	b := response.New(c)
	ctx, span := httpTracer.Start(c.Request().Context(), "servicos.getByID")
	defer span.End()

	svc, err := h.svc.GetService(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewServiceResponse(svc)).Build()
}
