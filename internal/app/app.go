package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/bazaar/internal/cache"
	"github.com/Additional-Code/bazaar/internal/config"
	"github.com/Additional-Code/bazaar/internal/database"
	"github.com/Additional-Code/bazaar/internal/logger"
	"github.com/Additional-Code/bazaar/internal/messaging"
	"github.com/Additional-Code/bazaar/internal/observability"
	"github.com/Additional-Code/bazaar/internal/plot"
	repositorycommerce "github.com/Additional-Code/bazaar/internal/repository/commerce"
	httpserver "github.com/Additional-Code/bazaar/internal/server/http"
	serviceorder "github.com/Additional-Code/bazaar/internal/service/order"
	servicereport "github.com/Additional-Code/bazaar/internal/service/report"
	transporthttp "github.com/Additional-Code/bazaar/internal/transport/http"
	"github.com/Additional-Code/bazaar/internal/worker"
	workerorder "github.com/Additional-Code/bazaar/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	plot.Module,
	repositorycommerce.Module,
	serviceorder.Module,
	servicereport.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
