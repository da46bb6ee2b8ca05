package dto

import (
	"encoding/json"
	"time"

	"github.com/Additional-Code/oficina/internal/entity"
)

// OrderResponse is a fully hydrated service order.
type OrderResponse struct {
	ID     string             `json:"id"`
	Numero int                `json:"numero"`
	Ano    int                `json:"ano"`
	Status entity.OrderStatus `json:"status"`

	ClienteID string           `json:"clienteId"`
	Cliente   *ClientResponse  `json:"cliente"`
	VeiculoID *string          `json:"veiculoId"`
	Veiculo   *VehicleResponse `json:"veiculo"`

	Observacoes        *string `json:"observacoes"`
	VeiculoKm          *int    `json:"veiculoKm"`
	VeiculoCombustivel *string `json:"veiculoCombustivel"`
	DefeitoRelatado    *string `json:"defeitoRelatado"`
	VeiculoObservacoes *string `json:"veiculoObservacoes"`

	TipoDesconto  entity.DiscountType `json:"tipoDesconto"`
	Desconto      json.Number         `json:"desconto"`
	ValorServicos json.Number         `json:"valorServicos"`
	ValorPecas    json.Number         `json:"valorPecas"`
	ValorSubtotal json.Number         `json:"valorSubtotal"`
	ValorDesconto json.Number         `json:"valorDesconto"`
	ValorTotal    json.Number         `json:"valorTotal"`

	ItensServicos []ServiceItemResponse `json:"itensServicos"`
	ItensPecas    []PartItemResponse    `json:"itensPecas"`

	DataConclusao *time.Time `json:"dataConclusao"`
	Versao        int64      `json:"versao"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ServiceItemResponse is a service line of an order.
type ServiceItemResponse struct {
	ID            string           `json:"id"`
	ServicoID     string           `json:"servicoId"`
	Servico       *ServiceResponse `json:"servico"`
	Quantidade    json.Number      `json:"quantidade"`
	PrecoUnitario json.Number      `json:"precoUnitario"`
	ValorTotal    json.Number      `json:"valorTotal"`
}

// PartItemResponse is a part line of an order.
type PartItemResponse struct {
	ID                     string        `json:"id"`
	PecaID                 string        `json:"pecaId"`
	Peca                   *PartResponse `json:"peca"`
	QuantidadeUtilizada    json.Number   `json:"quantidadeUtilizada"`
	PrecoUnitarioUtilizado json.Number   `json:"precoUnitarioUtilizado"`
	ValorTotal             json.Number   `json:"valorTotal"`
}

// OrderSummaryResponse is an order row in listings.
type OrderSummaryResponse struct {
	ID         string             `json:"id"`
	Numero     int                `json:"numero"`
	Ano        int                `json:"ano"`
	Status     entity.OrderStatus `json:"status"`
	Cliente    *ClientResponse    `json:"cliente"`
	Veiculo    *VehicleResponse   `json:"veiculo"`
	ValorTotal json.Number        `json:"valorTotal"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// NewOrderResponse maps an order and its lines to the API shape.
func NewOrderResponse(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:                 o.ID,
		Numero:             o.Number,
		Ano:                o.Year,
		Status:             o.Status,
		ClienteID:          o.ClientID,
		Cliente:            NewClientResponse(o.Client),
		VeiculoID:          o.VehicleID,
		Veiculo:            NewVehicleResponse(o.Vehicle),
		Observacoes:        o.Notes,
		VeiculoKm:          o.VehicleKm,
		VeiculoCombustivel: o.VehicleFuel,
		DefeitoRelatado:    o.ReportedDefect,
		VeiculoObservacoes: o.VehicleNotes,
		TipoDesconto:       o.DiscountType,
		Desconto:           Money(o.Discount),
		ValorServicos:      Money(o.ServicesTotal),
		ValorPecas:         Money(o.PartsTotal),
		ValorSubtotal:      Money(o.Subtotal),
		ValorDesconto:      Money(o.DiscountAmount),
		ValorTotal:         Money(o.Total),
		ItensServicos:      make([]ServiceItemResponse, 0, len(o.ServiceItems)),
		ItensPecas:         make([]PartItemResponse, 0, len(o.PartItems)),
		DataConclusao:      o.CompletedAt,
		Versao:             o.Version,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	for _, it := range o.ServiceItems {
		resp.ItensServicos = append(resp.ItensServicos, ServiceItemResponse{
			ID:            it.ID,
			ServicoID:     it.ServiceID,
			Servico:       NewServiceResponse(it.Service),
			Quantidade:    Quantity(it.Quantity),
			PrecoUnitario: Money(it.UnitPrice),
			ValorTotal:    Money(it.Total),
		})
	}
	for _, it := range o.PartItems {
		resp.ItensPecas = append(resp.ItensPecas, PartItemResponse{
			ID:                     it.ID,
			PecaID:                 it.PartID,
			Peca:                   NewPartResponse(it.Part),
			QuantidadeUtilizada:    Quantity(it.QuantityUsed),
			PrecoUnitarioUtilizado: Money(it.UnitPriceUsed),
			ValorTotal:             Money(it.Total),
		})
	}
	return resp
}

// NewOrderSummary maps an order to its listing row.
func NewOrderSummary(o *entity.Order) OrderSummaryResponse {
	return OrderSummaryResponse{
		ID:         o.ID,
		Numero:     o.Number,
		Ano:        o.Year,
		Status:     o.Status,
		Cliente:    NewClientResponse(o.Client),
		Veiculo:    NewVehicleResponse(o.Vehicle),
		ValorTotal: Money(o.Total),
		CreatedAt:  o.CreatedAt,
	}
}
