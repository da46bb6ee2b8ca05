package http

import (
	"go.uber.org/fx"

	catalogtransport "github.com/Additional-Code/oficina/internal/transport/http/catalog"
	ordertransport "github.com/Additional-Code/oficina/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	catalogtransport.Module,
)
