// Package analytics assembles the aggregation pipelines behind each report.
// The stages are declarative documents executed by the database server; the
// builders here are pure and carry no connection state.
package analytics

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const millisPerDay = 1000 * 60 * 60 * 24

// RevenueByCategoryPipeline joins order items with products, computes
// quantity × product price per item, and sums revenue per category,
// descending. Runs on order_items.
func RevenueByCategoryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "product_id",
			"foreignField": "product_id",
			"as":           "product_info",
		}}},
		{{Key: "$unwind", Value: "$product_info"}},
		{{Key: "$addFields", Value: bson.M{
			"revenue": bson.M{"$multiply": bson.A{"$quantity", "$product_info.price"}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$product_info.category",
			"total_revenue": bson.M{"$sum": "$revenue"},
		}}},
		{{Key: "$project", Value: bson.M{
			"product_category": "$_id",
			"total_revenue":    1,
			"_id":              0,
		}}},
		{{Key: "$sort", Value: bson.M{"total_revenue": -1}}},
	}
}

// AverageDeliveryTimePipeline computes the fleet-wide average gap between
// order_date and delivery_date, in milliseconds and days. Runs on orders.
func AverageDeliveryTimePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"delivery_date": bson.M{"$exists": true},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"delivery_date": bson.M{"$toDate": "$delivery_date"},
			"order_date":    bson.M{"$toDate": "$order_date"},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"delivery_time_ms": bson.M{"$subtract": bson.A{"$delivery_date", "$order_date"}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":                   nil,
			"average_delivery_time": bson.M{"$avg": "$delivery_time_ms"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                      0,
			"average_delivery_time_ms": "$average_delivery_time",
			"average_delivery_time_days": bson.M{
				"$divide": bson.A{"$average_delivery_time", millisPerDay},
			},
		}}},
	}
}

// DeliveryTimePerOrderPipeline computes the delivery time of every delivered
// order, slowest first. Runs on orders.
func DeliveryTimePerOrderPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"delivery_date": bson.M{"$exists": true},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"delivery_date": bson.M{"$toDate": "$delivery_date"},
			"order_date":    bson.M{"$toDate": "$order_date"},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"delivery_time_ms": bson.M{"$subtract": bson.A{"$delivery_date", "$order_date"}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":                      "$order_id",
			"average_delivery_time_ms": bson.M{"$avg": "$delivery_time_ms"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                      0,
			"order_id":                 "$_id",
			"average_delivery_time_ms": 1,
			"average_delivery_time_days": bson.M{
				"$divide": bson.A{"$average_delivery_time_ms", millisPerDay},
			},
		}}},
		{{Key: "$sort", Value: bson.M{"average_delivery_time_ms": -1}}},
	}
}

// CustomersByStatePipeline counts customers per state of their embedded
// address, descending. Runs on customers.
func CustomersByStatePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            "$address.state",
			"customer_count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":            0,
			"state":          "$_id",
			"customer_count": 1,
		}}},
		{{Key: "$sort", Value: bson.M{"customer_count": -1}}},
	}
}

// TopProductsPerOrderPipeline collects, for each order, its three most
// expensive products. Runs on order_items.
func TopProductsPerOrderPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "product_id",
			"foreignField": "product_id",
			"as":           "product_details",
		}}},
		{{Key: "$unwind", Value: "$product_details"}},
		{{Key: "$sort", Value: bson.M{"product_details.price": -1}}},
		{{Key: "$group", Value: bson.M{
			"_id": "$order_id",
			"top_products": bson.M{"$push": bson.M{
				"product_name": "$product_details.product_name",
				"price":        "$product_details.price",
				"quantity":     "$quantity",
				"total_price":  bson.M{"$multiply": bson.A{"$quantity", "$product_details.price"}},
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"order_id":     "$_id",
			"top_products": bson.M{"$slice": bson.A{"$top_products", 3}},
			"_id":          0,
		}}},
	}
}

// RevenueByProductPipeline joins orders with their items and sums
// quantity × snapshot price per product, descending. Runs on orders.
func RevenueByProductPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "order_items",
			"localField":   "order_id",
			"foreignField": "order_id",
			"as":           "order_details",
		}}},
		{{Key: "$unwind", Value: "$order_details"}},
		{{Key: "$group", Value: bson.M{
			"_id": "$order_details.product_id",
			"total_revenue": bson.M{
				"$sum": bson.M{"$multiply": bson.A{"$order_details.quantity", "$order_details.price"}},
			},
		}}},
		{{Key: "$project", Value: bson.M{
			"product_id":    "$_id",
			"total_revenue": 1,
			"_id":           0,
		}}},
		{{Key: "$sort", Value: bson.M{"total_revenue": -1}}},
	}
}

// MaxFieldPipeline finds the maximum value of a numeric field across a
// collection, for max+1 ID generation.
func MaxFieldPipeline(field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"max": bson.M{"$max": "$" + field},
		}}},
	}
}
