package order

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bazaar/internal/dto"
	"github.com/Additional-Code/bazaar/internal/entity"
	"github.com/Additional-Code/bazaar/internal/presentation/http/response"
	service "github.com/Additional-Code/bazaar/internal/service/order"
	"github.com/Additional-Code/bazaar/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/bazaar/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
}

func (h *Handler) create(c echo.Context) error {
	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return response.Fail(c, errorbank.BadRequest("invalid payload", errorbank.WithCause(err)))
	}

	lines := make([]service.LineItem, len(payload.Items))
	for i, item := range payload.Items {
		lines[i] = service.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int64("customer.id", payload.CustomerID),
		attribute.Int("items.count", len(lines)),
	))
	defer span.End()

	order, items, err := h.svc.Create(ctx, payload.CustomerID, lines)
	if err != nil {
		return response.Fail(c, err)
	}

	return response.Created(c, toDTO(order, items))
}

func toDTO(order *entity.Order, items []entity.OrderItem) dto.OrderResponse {
	resp := dto.OrderResponse{
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		OrderDate:  order.OrderDate,
		Status:     string(order.Status),
		Items:      make([]dto.OrderItemResponse, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = dto.OrderItemResponse{
			OrderItemID: item.OrderItemID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}
	return resp
}
