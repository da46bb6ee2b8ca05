package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/logger"
	"github.com/Additional-Code/oficina/internal/messaging"
	"github.com/Additional-Code/oficina/internal/observability"
	repositorycatalog "github.com/Additional-Code/oficina/internal/repository/catalog"
	repositoryorder "github.com/Additional-Code/oficina/internal/repository/order"
	grpcserver "github.com/Additional-Code/oficina/internal/server/grpc"
	httpserver "github.com/Additional-Code/oficina/internal/server/http"
	servicecatalog "github.com/Additional-Code/oficina/internal/service/catalog"
	serviceorder "github.com/Additional-Code/oficina/internal/service/order"
	transporthttp "github.com/Additional-Code/oficina/internal/transport/http"
	"github.com/Additional-Code/oficina/internal/worker"
	workerorder "github.com/Additional-Code/oficina/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositorycatalog.Module,
	repositoryorder.Module,
	servicecatalog.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring.
var Module = HTTP

// EventLogger routes Fx lifecycle events through the application logger.
var EventLogger = fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
})
