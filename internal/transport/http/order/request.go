package order

import (
	"github.com/shopspring/decimal"

	service "github.com/Additional-Code/oficina/internal/service/order"
	"github.com/Additional-Code/oficina/pkg/optional"
)

type serviceLineRequest struct {
	ServicoID     string          `json:"servicoId" validate:"required"`
	Quantidade    decimal.Decimal `json:"quantidade" validate:"gt=0"`
	PrecoUnitario decimal.Decimal `json:"precoUnitario" validate:"gte=0"`
}

type partLineRequest struct {
	PecaID        string          `json:"pecaId" validate:"required"`
	Quantidade    decimal.Decimal `json:"quantidade" validate:"gt=0"`
	PrecoUnitario decimal.Decimal `json:"precoUnitario" validate:"gte=0"`
}

type createOrderRequest struct {
	ClienteID          string               `json:"clienteId" validate:"required"`
	VeiculoID          *string              `json:"veiculoId"`
	Observacoes        *string              `json:"observacoes"`
	VeiculoKm          *int                 `json:"veiculoKm" validate:"omitempty,gte=0"`
	VeiculoCombustivel *string              `json:"veiculoCombustivel"`
	DefeitoRelatado    *string              `json:"defeitoRelatado"`
	VeiculoObservacoes *string              `json:"veiculoObservacoes"`
	TipoDesconto       string               `json:"tipoDesconto"`
	Desconto           decimal.Decimal      `json:"desconto" validate:"gte=0"`
	ItemsServicos      []serviceLineRequest `json:"itemsServicos" validate:"dive"`
	ItemsPecas         []partLineRequest    `json:"itemsPecas" validate:"dive"`
}

func (r createOrderRequest) input() service.CreateInput {
	return service.CreateInput{
		ClientID:       r.ClienteID,
		VehicleID:      r.VeiculoID,
		Notes:          r.Observacoes,
		VehicleKm:      r.VeiculoKm,
		VehicleFuel:    r.VeiculoCombustivel,
		ReportedDefect: r.DefeitoRelatado,
		VehicleNotes:   r.VeiculoObservacoes,
		DiscountType:   r.TipoDesconto,
		Discount:       r.Desconto,
		ServiceItems:   serviceLines(r.ItemsServicos),
		PartItems:      partLines(r.ItemsPecas),
	}
}

// updateOrderRequest keeps every field tri-state; semantic checks happen in the
// engine once the persisted order is known.
type updateOrderRequest struct {
	Versao             *int64                               `json:"versao"`
	ClienteID          optional.Field[string]               `json:"clienteId"`
	VeiculoID          optional.Field[string]               `json:"veiculoId"`
	Observacoes        optional.Field[string]               `json:"observacoes"`
	VeiculoKm          optional.Field[int]                  `json:"veiculoKm"`
	VeiculoCombustivel optional.Field[string]               `json:"veiculoCombustivel"`
	DefeitoRelatado    optional.Field[string]               `json:"defeitoRelatado"`
	VeiculoObservacoes optional.Field[string]               `json:"veiculoObservacoes"`
	TipoDesconto       optional.Field[string]               `json:"tipoDesconto"`
	Desconto           optional.Field[decimal.Decimal]      `json:"desconto"`
	ItemsServicos      optional.Field[[]serviceLineRequest] `json:"itemsServicos"`
	ItemsPecas         optional.Field[[]partLineRequest]    `json:"itemsPecas"`
}

func (r updateOrderRequest) input() service.UpdateInput {
	return service.UpdateInput{
		ExpectedVersion: r.Versao,
		ClientID:        r.ClienteID,
		VehicleID:       r.VeiculoID,
		Notes:           r.Observacoes,
		VehicleKm:       r.VeiculoKm,
		VehicleFuel:     r.VeiculoCombustivel,
		ReportedDefect:  r.DefeitoRelatado,
		VehicleNotes:    r.VeiculoObservacoes,
		DiscountType:    r.TipoDesconto,
		Discount:        r.Desconto,
		ServiceItems:    optional.Map(r.ItemsServicos, serviceLines),
		PartItems:       optional.Map(r.ItemsPecas, partLines),
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func serviceLines(in []serviceLineRequest) []service.LineInput {
	out := make([]service.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, service.LineInput{RefID: l.ServicoID, Quantity: l.Quantidade, UnitPrice: l.PrecoUnitario})
	}
	return out
}

func partLines(in []partLineRequest) []service.LineInput {
	out := make([]service.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, service.LineInput{RefID: l.PecaID, Quantity: l.Quantidade, UnitPrice: l.PrecoUnitario})
	}
	return out
}
