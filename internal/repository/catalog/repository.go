package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/catalog")

var (
	// ErrNotFound is returned when a catalog record is missing.
	ErrNotFound = errors.New("catalog record not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("catalog record already exists")
)

// Repository stores clients, vehicles, parts and services.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// WithTx returns a repository bound to tx for both reads and writes.
func (r *Repository) WithTx(tx bun.IDB) *Repository {
	return &Repository{writer: tx, reader: tx}
}

func (r *Repository) CreateClient(ctx context.Context, c *entity.Client) error {
	return insert(ctx, r.writer, "CatalogRepository.CreateClient", c)
}

func (r *Repository) GetClient(ctx context.Context, id string) (*entity.Client, error) {
	return getByID[entity.Client](ctx, r.reader, "CatalogRepository.GetClient", id)
}

// ListClients returns clients ordered by name, optionally filtered by name.
func (r *Repository) ListClients(ctx context.Context, search string) ([]*entity.Client, error) {
	var out []*entity.Client
	q := r.reader.NewSelect().Model(&out).OrderExpr("client.name ASC")
	if s := likePattern(search); s != "" {
		q = q.Where("LOWER(client.name) LIKE ?", s)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CreateVehicle(ctx context.Context, v *entity.Vehicle) error {
	return insert(ctx, r.writer, "CatalogRepository.CreateVehicle", v)
}

func (r *Repository) GetVehicle(ctx context.Context, id string) (*entity.Vehicle, error) {
	return getByID[entity.Vehicle](ctx, r.reader, "CatalogRepository.GetVehicle", id)
}

// ListVehicles returns vehicles, restricted to clientID when it is set.
func (r *Repository) ListVehicles(ctx context.Context, clientID string) ([]*entity.Vehicle, error) {
	var out []*entity.Vehicle
	q := r.reader.NewSelect().Model(&out).OrderExpr("vehicle.plate ASC")
	if clientID != "" {
		q = q.Where("vehicle.client_id = ?", clientID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CreatePart(ctx context.Context, p *entity.Part) error {
	return insert(ctx, r.writer, "CatalogRepository.CreatePart", p)
}

func (r *Repository) GetPart(ctx context.Context, id string) (*entity.Part, error) {
	return getByID[entity.Part](ctx, r.reader, "CatalogRepository.GetPart", id)
}

// GetPartByCode looks a part up by its unique code.
func (r *Repository) GetPartByCode(ctx context.Context, code string) (*entity.Part, error) {
	part := new(entity.Part)
	err := r.reader.NewSelect().Model(part).Where("part.code = ?", code).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return part, nil
}

// ListParts returns parts ordered by name, optionally filtered by name or code.
func (r *Repository) ListParts(ctx context.Context, search string) ([]*entity.Part, error) {
	var out []*entity.Part
	q := r.reader.NewSelect().Model(&out).OrderExpr("part.name ASC")
	if s := likePattern(search); s != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(part.name) LIKE ?", s).WhereOr("LOWER(part.code) LIKE ?", s)
		})
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CreateService(ctx context.Context, s *entity.Service) error {
	return insert(ctx, r.writer, "CatalogRepository.CreateService", s)
}

func (r *Repository) GetService(ctx context.Context, id string) (*entity.Service, error) {
	return getByID[entity.Service](ctx, r.reader, "CatalogRepository.GetService", id)
}

// ListServices returns services ordered by name, optionally filtered by name.
func (r *Repository) ListServices(ctx context.Context, search string) ([]*entity.Service, error) {
	var out []*entity.Service
	q := r.reader.NewSelect().Model(&out).OrderExpr("service.name ASC")
	if s := likePattern(search); s != "" {
		q = q.Where("LOWER(service.name) LIKE ?", s)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// FindServices loads the services with the given ids, keyed by id. Unknown ids
// are simply absent from the result.
func (r *Repository) FindServices(ctx context.Context, ids []string) (map[string]*entity.Service, error) {
	var rows []*entity.Service
	if err := findByIDs(ctx, r.reader, &rows, ids); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Service, len(rows))
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

// FindParts loads the parts with the given ids, keyed by id.
func (r *Repository) FindParts(ctx context.Context, ids []string) (map[string]*entity.Part, error) {
	var rows []*entity.Part
	if err := findByIDs(ctx, r.reader, &rows, ids); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Part, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func insert(ctx context.Context, db bun.IDB, spanName string, model any) error {
	ctx, span := repoTracer.Start(ctx, spanName)
	defer span.End()

	if _, err := db.NewInsert().Model(model).Exec(ctx); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

func getByID[T any](ctx context.Context, db bun.IDB, spanName, id string) (*T, error) {
	ctx, span := repoTracer.Start(ctx, spanName, trace.WithAttributes(attribute.String("catalog.id", id)))
	defer span.End()

	model := new(T)
	err := db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return model, nil
}

func findByIDs(ctx context.Context, db bun.IDB, dest any, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.NewSelect().Model(dest).Where("id IN (?)", bun.In(ids)).Scan(ctx)
}

func likePattern(search string) string {
	s := strings.ToLower(strings.TrimSpace(search))
	if s == "" {
		return ""
	}
	return "%" + s + "%"
}
