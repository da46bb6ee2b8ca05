// Package catalog manages the records service orders reference: clients,
// vehicles, parts and labour services.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/entity"
	repo "github.com/Additional-Code/oficina/internal/repository/catalog"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/catalog")

// ClientInput creates a client.
type ClientInput struct {
	Name     string
	Document *string
	Phone    *string
	Email    *string
}

// VehicleInput creates a vehicle owned by ClientID.
type VehicleInput struct {
	ClientID  string
	Plate     string
	Brand     *string
	Model     *string
	ModelYear *int
	Color     *string
}

// PartInput creates a part. Code must be unique.
type PartInput struct {
	Code  string
	Name  string
	Price decimal.Decimal
	Stock int
}

// ServiceInput creates a labour service.
type ServiceInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
}

// Service exposes catalog operations.
type Service struct {
	repo   *repo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a catalog Service.
func NewService(r *repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: r, logger: logger, now: time.Now}
}

func (s *Service) CreateClient(ctx context.Context, in ClientInput) (*entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateClient")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errorbank.BadRequest("nome é obrigatório.")
	}
	now := s.now().UTC()
	client := &entity.Client{
		ID:        uuid.NewString(),
		Name:      name,
		Document:  trimmed(in.Document),
		Phone:     trimmed(in.Phone),
		Email:     trimmed(in.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		return nil, s.translate(span, "create_client", err)
	}
	return client, nil
}

func (s *Service) GetClient(ctx context.Context, id string) (*entity.Client, error) {
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, s.translate(trace.SpanFromContext(ctx), "get_client", err)
	}
	return client, nil
}

func (s *Service) ListClients(ctx context.Context, search string) ([]*entity.Client, error) {
	clients, err := s.repo.ListClients(ctx, search)
	if err != nil {
		return nil, s.translate(trace.SpanFromContext(ctx), "list_clients", err)
	}
	return clients, nil
}

// CreateVehicle registers a vehicle; the owning client must exist.
func (s *Service) CreateVehicle(ctx context.Context, in VehicleInput) (*entity.Vehicle, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateVehicle")
	defer span.End()

	clientID := strings.TrimSpace(in.ClientID)
	plate := strings.ToUpper(strings.TrimSpace(in.Plate))
	var problems []string
	if clientID == "" {
		problems = append(problems, "clienteId é obrigatório")
	}
	if plate == "" {
		problems = append(problems, "placa é obrigatória")
	}
	if len(problems) > 0 {
		return nil, errorbank.BadRequest(strings.Join(problems, "; "))
	}

	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.InvalidReference("cliente " + clientID + " não encontrado")
		}
		return nil, s.translate(span, "create_vehicle", err)
	}

	now := s.now().UTC()
	vehicle := &entity.Vehicle{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Plate:     plate,
		Brand:     trimmed(in.Brand),
		Model:     trimmed(in.Model),
		ModelYear: in.ModelYear,
		Color:     trimmed(in.Color),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
		return nil, s.translate(span, "create_vehicle", err)
	}
	return vehicle, nil
}

func (s *Service) GetVehicle(ctx context.Context, id string) (*entity.Vehicle, error) {
	vehicle, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		return nil, s.translate(trace.SpanFromContext(ctx), "get_vehicle", err)
	}
	return vehicle, nil
}

func (s *Service) ListVehicles(ctx context.Context, clientID string) ([]*entity.Vehicle, error) {
	vehicles, err := s.repo.ListVehicles(ctx, strings.TrimSpace(clientID))
	if err != nil {
		return nil, s.translate(trace.SpanFromContext(ctx), "list_vehicles", err)
	}
	return vehicles, nil
}

// CreatePart registers a part. A taken code yields a conflict.
func (s *Service) CreatePart(ctx context.Context, in PartInput) (*entity.Part, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreatePart")
	defer span.End()

	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	var problems []string
	if code == "" {
		problems = append(problems, "código é obrigatório")
	}
	if name == "" {
		problems = append(problems, "nome é obrigatório")
	}
	if in.Price.IsNegative() {
		problems = append(problems, "preço não pode ser negativo")
	}
	if in.Stock < 0 {
		problems = append(problems, "estoque não pode ser negativo")
	}
	if len(problems) > 0 {
		return nil, errorbank.BadRequest(strings.Join(problems, "; "))
	}

	now := s.now().UTC()
	part := &entity.Part{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		Price:     in.Price.Round(2),
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePart(ctx, part); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, errorbank.Conflict("Já existe uma peça com o código " + code + ".")
		}
		return nil, s.translate(span, "create_part", err)
	}
	return part, nil
}

func (s *Service) GetPart(ctx context.Context, id string) (*entity.Part, error) {
	part, err := s.repo.GetPart(ctx, id)
	if err != nil {
		return nil, s.translate(trace.SpanFromContext(ctx), "get_part", err)
	}
	return part, nil
}

func (s *Service) ListParts(ctx context.Context, search string) ([]*entity.Part, error) {
	parts, err := s.repo.ListParts(ctx, search)
	if err != nil {
		return nil, s.translate(trace.SpanFromContext(ctx), "list_parts", err)
	}
	return parts, nil
}

func (s *Service) CreateService(ctx context.Context, in ServiceInput) (*entity.Service, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateService")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	var problems []string
	if name == "" {
		problems = append(problems, "nome é obrigatório")
	}
	if in.Price.IsNegative() {
		problems = append(problems, "preço não pode ser negativo")
	}
	if len(problems) > 0 {
		return nil, errorbank.BadRequest(strings.Join(problems, "; "))
	}

	now := s.now().UTC()
	svc := &entity.Service{
		ID:          uuid.NewString(),
		Name:        name,
		Description: trimmed(in.Description),
		Price:       in.Price.Round(2),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, s.translate(span, "create_service", err)
	}
	return svc, nil
}

func (s *Service) GetService(ctx context.Context, id string) (*entity.Service, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, s.translate(trace.SpanFromContext(ctx), "get_service", err)
	}
	return svc, nil
}

func (s *Service) ListServices(ctx context.Context, search string) ([]*entity.Service, error) {
	services, err := s.repo.ListServices(ctx, search)
	if err != nil {
		return nil, s.translate(trace.SpanFromContext(ctx), "list_services", err)
	}
	return services, nil
}

func (s *Service) translate(span trace.Span, op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("Registro não encontrado.")
	case errors.Is(err, repo.ErrDuplicate):
		return errorbank.Conflict("Registro já existe.")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	s.logger.Error("catalog operation failed", zap.String("operation", op), zap.Error(err))
	return errorbank.Internal(errorbank.InternalMessage, errorbank.WithCause(err))
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
