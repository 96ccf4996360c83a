package analytics

// CategoryRevenue is one row of the revenue-by-category report.
type CategoryRevenue struct {
	Category     string `bson:"product_category" json:"product_category"`
	TotalRevenue int64  `bson:"total_revenue" json:"total_revenue"`
}

// DeliveryTime is the single row of the fleet-wide delivery time report.
type DeliveryTime struct {
	AverageMillis float64 `bson:"average_delivery_time_ms" json:"average_delivery_time_ms"`
	AverageDays   float64 `bson:"average_delivery_time_days" json:"average_delivery_time_days"`
}

// OrderDeliveryTime is one row of the per-order delivery time report.
type OrderDeliveryTime struct {
	OrderID       int64   `bson:"order_id" json:"order_id"`
	AverageMillis float64 `bson:"average_delivery_time_ms" json:"average_delivery_time_ms"`
	AverageDays   float64 `bson:"average_delivery_time_days" json:"average_delivery_time_days"`
}

// StateCustomers is one row of the customers-by-state report.
type StateCustomers struct {
	State         string `bson:"state" json:"state"`
	CustomerCount int64  `bson:"customer_count" json:"customer_count"`
}

// RankedProduct is one entry in an order's most-expensive-products list.
type RankedProduct struct {
	ProductName string `bson:"product_name" json:"product_name"`
	Price       int64  `bson:"price" json:"price"`
	Quantity    int64  `bson:"quantity" json:"quantity"`
	TotalPrice  int64  `bson:"total_price" json:"total_price"`
}

// OrderTopProducts is one row of the top-products-per-order report.
type OrderTopProducts struct {
	OrderID     int64           `bson:"order_id" json:"order_id"`
	TopProducts []RankedProduct `bson:"top_products" json:"top_products"`
}

// ProductRevenue is one row of the revenue-by-product report.
type ProductRevenue struct {
	ProductID    int64 `bson:"product_id" json:"product_id"`
	TotalRevenue int64 `bson:"total_revenue" json:"total_revenue"`
}
