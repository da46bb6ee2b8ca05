package validation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/oficina/internal/presentation/http/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type line struct {
	ID       string          `json:"servicoId" validate:"required"`
	Quantity decimal.Decimal `json:"quantidade" validate:"gt=0"`
	Price    decimal.Decimal `json:"precoUnitario" validate:"gte=0"`
}

type payload struct {
	ClientID string `json:"clienteId" validate:"required"`
	Kind     string `json:"tipoDesconto" validate:"omitempty,oneof=VALOR PORCENTAGEM"`
	Lines    []line `json:"itemsServicos" validate:"dive"`
}

func TestValidatePasses(t *testing.T) {
	v := validation.New()
	err := v.Validate(payload{
		ClientID: "C1",
		Lines:    []line{{ID: "S1", Quantity: decimal.NewFromInt(2), Price: decimal.Zero}},
	})
	assert.NoError(t, err)
}

func TestValidateAggregatesMessages(t *testing.T) {
	v := validation.New()
	err := v.Validate(payload{
		Kind:  "BRINDE",
		Lines: []line{{Quantity: decimal.Zero, Price: decimal.NewFromInt(-1)}},
	})
	require.Error(t, err)

	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	assert.Equal(t,
		"clienteId é obrigatório; tipoDesconto deve ser um de: VALOR, PORCENTAGEM; "+
			"itemsServicos[0].servicoId é obrigatório; itemsServicos[0].quantidade deve ser maior que 0; "+
			"itemsServicos[0].precoUnitario deve ser maior ou igual a 0",
		appErr.Message(),
	)
}
