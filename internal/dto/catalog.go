package dto

import (
	"encoding/json"
	"time"

	"github.com/Additional-Code/oficina/internal/entity"
)

// ClientResponse represents a client as exposed via transport layers.
type ClientResponse struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	Documento *string   `json:"documento"`
	Telefone  *string   `json:"telefone"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type VehicleResponse struct {
	ID        string    `json:"id"`
	ClienteID string    `json:"clienteId"`
	Placa     string    `json:"placa"`
	Marca     *string   `json:"marca"`
	Modelo    *string   `json:"modelo"`
	Ano       *int      `json:"ano"`
	Cor       *string   `json:"cor"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PartResponse struct {
	ID        string      `json:"id"`
	Codigo    string      `json:"codigo"`
	Nome      string      `json:"nome"`
	Preco     json.Number `json:"preco"`
	Estoque   int         `json:"estoque"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type ServiceResponse struct {
	ID        string      `json:"id"`
	Nome      string      `json:"nome"`
	Descricao *string     `json:"descricao"`
	Preco     json.Number `json:"preco"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// NewClientResponse returns nil for a nil client.
func NewClientResponse(c *entity.Client) *ClientResponse {
	if c == nil {
		return nil
	}
	return &ClientResponse{
		ID:        c.ID,
		Nome:      c.Name,
		Documento: c.Document,
		Telefone:  c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func NewVehicleResponse(v *entity.Vehicle) *VehicleResponse {
	if v == nil {
		return nil
	}
	return &VehicleResponse{
		ID:        v.ID,
		ClienteID: v.ClientID,
		Placa:     v.Plate,
		Marca:     v.Brand,
		Modelo:    v.Model,
		Ano:       v.ModelYear,
		Cor:       v.Color,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func NewPartResponse(p *entity.Part) *PartResponse {
	if p == nil {
		return nil
	}
	return &PartResponse{
		ID:        p.ID,
		Codigo:    p.Code,
		Nome:      p.Name,
		Preco:     Money(p.Price),
		Estoque:   p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func NewServiceResponse(s *entity.Service) *ServiceResponse {
	if s == nil {
		return nil
	}
	return &ServiceResponse{
		ID:        s.ID,
		Nome:      s.Name,
		Descricao: s.Description,
		Preco:     Money(s.Price),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// MapSlice converts every element with fn.
func MapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
