package grpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/oficina/pkg/errorbank"
)

func TestToStatus(t *testing.T) {
	assert.NoError(t, toStatus(nil))

	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{name: "invalid state", err: errorbank.InvalidState("Apenas pedidos em andamento podem ser editados."), code: codes.FailedPrecondition, msg: "Apenas pedidos em andamento podem ser editados."},
		{name: "not found", err: errorbank.NotFound("Ordem de serviço não encontrada."), code: codes.NotFound, msg: "Ordem de serviço não encontrada."},
		{name: "conflict", err: errorbank.Conflict("conflito"), code: codes.Aborted, msg: "conflito"},
		{name: "plain error", err: errors.New("connection reset"), code: codes.Internal, msg: errorbank.InternalMessage},
		{name: "existing status", err: status.Error(codes.Unavailable, "down"), code: codes.Unavailable, msg: "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(toStatus(tt.err))
			assert.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.msg, st.Message())
		})
	}
}
