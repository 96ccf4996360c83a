package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus enumerates the lifecycle states an order can carry.
type OrderStatus string

const (
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

// OrderStatuses lists every accepted order status, in validator order.
var OrderStatuses = []OrderStatus{
	OrderStatusShipped,
	OrderStatusProcessing,
	OrderStatusCancelled,
	OrderStatusDelivered,
}

// Address is embedded in the customer document.
type Address struct {
	Street string `bson:"street" json:"street"`
	City   string `bson:"city" json:"city"`
	State  string `bson:"state" json:"state"`
}

// Customer stores identity and an embedded address.
type Customer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID int64              `bson:"customer_id" json:"customer_id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Address    Address            `bson:"address" json:"address"`
}

// Product is referenced by order items.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID   int64              `bson:"product_id" json:"product_id"`
	ProductName string             `bson:"product_name" json:"product_name"`
	Category    string             `bson:"category" json:"category"`
	Price       int64              `bson:"price" json:"price"`
	Stock       *int64             `bson:"stock,omitempty" json:"stock,omitempty"`
}

// Order references the customer that placed it.
type Order struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID      int64              `bson:"order_id" json:"order_id"`
	CustomerID   int64              `bson:"customer_id" json:"customer_id"`
	OrderDate    time.Time          `bson:"order_date" json:"order_date"`
	DeliveryDate *time.Time         `bson:"delivery_date,omitempty" json:"delivery_date,omitempty"`
	Status       OrderStatus        `bson:"status" json:"status"`
}

// OrderItem references both an order and a product, and snapshots the price
// at time of purchase.
type OrderItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderItemID int64              `bson:"order_item_id" json:"order_item_id"`
	OrderID     int64              `bson:"order_id" json:"order_id"`
	ProductID   int64              `bson:"product_id" json:"product_id"`
	Quantity    int64              `bson:"quantity" json:"quantity"`
	Price       int64              `bson:"price" json:"price"`
}

// Counter backs atomic ID allocation: one document per sequence, advanced
// with $inc under findAndModify.
type Counter struct {
	Name  string `bson:"_id" json:"name"`
	Value int64  `bson:"value" json:"value"`
}
