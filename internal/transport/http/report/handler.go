package report

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bazaar/internal/presentation/http/response"
	service "github.com/Additional-Code/bazaar/internal/service/report"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bazaar/transport/http/report")

// Handler exposes analytical reports over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/reports")
	g.GET("", h.list)
	g.GET("/:name", h.run)
	g.POST("/charts", h.renderCharts)
}

func (h *Handler) list(c echo.Context) error {
	return response.OK(c, service.Names())
}

func (h *Handler) run(c echo.Context) error {
	name := c.Param("name")

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.run",
		trace.WithAttributes(attribute.String("report", name)))
	defer span.End()

	rows, err := h.svc.Run(ctx, name)
	if err != nil {
		return response.Fail(c, err)
	}

	return response.Result(c, rows, map[string]any{"report": name})
}

func (h *Handler) renderCharts(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "reports.renderCharts")
	defer span.End()

	paths, err := h.svc.RenderCharts(ctx)
	if err != nil {
		return response.Fail(c, err)
	}

	return response.OK(c, map[string]any{"charts": paths})
}
