package dto

import "time"

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	Price     int64 `json:"price"`
}

// CreateOrderRequest is the payload accepted by POST /orders.
type CreateOrderRequest struct {
	CustomerID int64              `json:"customer_id"`
	Items      []OrderItemRequest `json:"items"`
}

// OrderItemResponse represents an order line as exposed via transport layers.
type OrderItemResponse struct {
	OrderItemID int64 `json:"order_item_id"`
	OrderID     int64 `json:"order_id"`
	ProductID   int64 `json:"product_id"`
	Quantity    int64 `json:"quantity"`
	Price       int64 `json:"price"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	OrderID    int64               `json:"order_id"`
	CustomerID int64               `json:"customer_id"`
	OrderDate  time.Time           `json:"order_date"`
	Status     string              `json:"status"`
	Items      []OrderItemResponse `json:"items"`
}
