package order_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/presentation/http/validation"
	service "github.com/Additional-Code/oficina/internal/service/order"
	ordertransport "github.com/Additional-Code/oficina/internal/transport/http/order"
	"github.com/Additional-Code/oficina/internal/transport/http/order/mocks"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

func setup(t *testing.T) (*echo.Echo, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	e := echo.New()
	e.Validator = validation.New()
	ordertransport.Register(e, ordertransport.NewHandler(svc))
	return e, svc
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sampleOrder() *entity.Order {
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return &entity.Order{
		ID:             "o1",
		Number:         1,
		Year:           2024,
		Status:         entity.StatusInProgress,
		ClientID:       "C1",
		Client:         &entity.Client{ID: "C1", Name: "Maria"},
		DiscountType:   entity.DiscountAmount,
		Discount:       decimal.NewFromInt(10),
		ServicesTotal:  decimal.NewFromInt(100),
		PartsTotal:     decimal.NewFromInt(30),
		Subtotal:       decimal.NewFromInt(130),
		DiscountAmount: decimal.NewFromInt(10),
		Total:          decimal.NewFromInt(120),
		Version:        1,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func TestCreateOrder(t *testing.T) {
	e, svc := setup(t)

	svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, in service.CreateInput) (*entity.Order, error) {
		assert.Equal(t, "C1", in.ClientID)
		assert.Equal(t, "VALOR", in.DiscountType)
		assert.True(t, in.Discount.Equal(decimal.NewFromInt(10)))
		require.Len(t, in.ServiceItems, 1)
		assert.Equal(t, "S1", in.ServiceItems[0].RefID)
		assert.True(t, in.ServiceItems[0].Quantity.Equal(decimal.NewFromInt(2)))
		require.Len(t, in.PartItems, 1)
		assert.Equal(t, "P1", in.PartItems[0].RefID)
		assert.True(t, in.PartItems[0].UnitPrice.Equal(decimal.NewFromInt(30)))
		return sampleOrder(), nil
	})

	rec := do(e, http.MethodPost, "/ordens-servico", `{
		"clienteId": "C1",
		"tipoDesconto": "VALOR",
		"desconto": 10,
		"itemsServicos": [{"servicoId": "S1", "quantidade": 2, "precoUnitario": 50}],
		"itemsPecas": [{"pecaId": "P1", "quantidade": 1, "precoUnitario": 30}]
	}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"valorServicos":100.00`)
	assert.Contains(t, body, `"valorPecas":30.00`)
	assert.Contains(t, body, `"valorSubtotal":130.00`)
	assert.Contains(t, body, `"valorDesconto":10.00`)
	assert.Contains(t, body, `"valorTotal":120.00`)
	assert.Contains(t, body, `"status":"EM_ANDAMENTO"`)
}

func TestCreateOrderRejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{`, want: `{"erro":"Corpo da requisição inválido."}`},
		{name: "missing client", body: `{}`, want: `{"erro":"clienteId é obrigatório"}`},
		{
			name: "bad line",
			body: `{"clienteId":"C1","itemsPecas":[{"pecaId":"P1","quantidade":0,"precoUnitario":1}]}`,
			want: `{"erro":"itemsPecas[0].quantidade deve ser maior que 0"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setup(t)
			rec := do(e, http.MethodPost, "/ordens-servico", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestCreateOrderReferenceError(t *testing.T) {
	e, svc := setup(t)
	svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errorbank.InvalidReference("cliente C9 não encontrado"))

	rec := do(e, http.MethodPost, "/ordens-servico", `{"clienteId":"C9"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"erro":"cliente C9 não encontrado"}`, rec.Body.String())
}

func TestUpdateOrderTriState(t *testing.T) {
	e, svc := setup(t)

	svc.EXPECT().Update(gomock.Any(), "o1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, in service.UpdateInput) (*entity.Order, error) {
		assert.True(t, in.VehicleID.Set)
		assert.True(t, in.VehicleID.Null)
		assert.False(t, in.Notes.Set)
		assert.True(t, in.Discount.HasValue())
		assert.True(t, in.Discount.Value.Equal(decimal.NewFromInt(5)))
		assert.False(t, in.ServiceItems.Set)
		assert.True(t, in.PartItems.HasValue())
		require.Len(t, in.PartItems.Value, 1)
		assert.Equal(t, "P2", in.PartItems.Value[0].RefID)
		require.NotNil(t, in.ExpectedVersion)
		assert.EqualValues(t, 3, *in.ExpectedVersion)
		return sampleOrder(), nil
	})

	rec := do(e, http.MethodPut, "/ordens-servico/o1",
		`{"versao":3,"veiculoId":null,"desconto":5,"itemsPecas":[{"pecaId":"P2","quantidade":1,"precoUnitario":9.9}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateOrderErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "not editable",
			err:    errorbank.InvalidState(service.MsgNotEditable),
			status: http.StatusBadRequest,
			body:   `{"erro":"Apenas pedidos em andamento podem ser editados."}`,
		},
		{
			name:   "missing order",
			err:    errorbank.NotFound("Ordem de serviço não encontrada."),
			status: http.StatusNotFound,
			body:   `{"erro":"Ordem de serviço não encontrada."}`,
		},
		{
			name:   "stale version",
			err:    errorbank.Conflict("conflito"),
			status: http.StatusConflict,
			body:   `{"erro":"conflito"}`,
		},
		{
			name:   "unexpected",
			err:    errors.New("database is locked"),
			status: http.StatusInternalServerError,
			body:   `{"erro":"Erro interno do servidor."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, svc := setup(t)
			svc.EXPECT().Update(gomock.Any(), "o1", gomock.Any()).Return(nil, tt.err)

			rec := do(e, http.MethodPut, "/ordens-servico/o1", `{"observacoes":"x"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestListOrders(t *testing.T) {
	e, svc := setup(t)

	svc.EXPECT().List(gomock.Any(), service.ListFilter{
		Status: "CONCLUIDO",
		Search: "maria",
		Year:   2024,
		Limit:  10,
		Offset: 20,
	}).Return([]*entity.Order{sampleOrder()}, nil)

	rec := do(e, http.MethodGet, "/ordens-servico?status=CONCLUIDO&busca=maria&ano=2024&limite=10&offset=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"numero":1`)
	assert.NotContains(t, rec.Body.String(), "itensServicos")
}

func TestListOrdersRejectsBadNumbers(t *testing.T) {
	e, _ := setup(t)

	rec := do(e, http.MethodGet, "/ordens-servico?ano=dois", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"erro":"ano deve ser um número inteiro."}`, rec.Body.String())
}

func TestGetOrder(t *testing.T) {
	e, svc := setup(t)
	svc.EXPECT().Get(gomock.Any(), "o1").Return(sampleOrder(), nil)

	rec := do(e, http.MethodGet, "/ordens-servico/o1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"itensServicos":[]`)
}

func TestSetStatus(t *testing.T) {
	e, svc := setup(t)

	done := sampleOrder()
	done.Status = entity.StatusCompleted
	svc.EXPECT().SetStatus(gomock.Any(), "o1", "FINALIZADA").Return(done, nil)

	rec := do(e, http.MethodPatch, "/ordens-servico/o1/status", `{"status":"FINALIZADA"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CONCLUIDO"`)

	rec = do(e, http.MethodPatch, "/ordens-servico/o1/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"erro":"status é obrigatório"}`, rec.Body.String())
}

func TestDeleteOrder(t *testing.T) {
	e, svc := setup(t)
	svc.EXPECT().Delete(gomock.Any(), "o1").Return(nil)

	rec := do(e, http.MethodDelete, "/ordens-servico/o1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
