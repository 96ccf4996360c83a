package schema

import "go.mongodb.org/mongo-driver/bson"

// Validators returns the $jsonSchema document for each provisioned
// collection. Writes violating these rules are rejected by the server.
func Validators() map[string]bson.M {
	return map[string]bson.M{
		"customers":   customerValidator(),
		"products":    productValidator(),
		"orders":      orderValidator(),
		"order_items": orderItemValidator(),
	}
}

// integer ids arrive as int32 from fixtures and int64 from the application,
// so the validators accept both BSON widths.
var integerTypes = bson.A{"int", "long"}

func customerValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"customer_id", "name", "email", "address"},
			"properties": bson.M{
				"_id": bson.M{"bsonType": "objectId"},
				"customer_id": bson.M{
					"bsonType":    integerTypes,
					"description": "must be an integer",
				},
				"name": bson.M{
					"bsonType":    "string",
					"minLength":   1,
					"description": "must be a non-empty string",
				},
				"email": bson.M{
					"bsonType":    "string",
					"pattern":     `^\S+@\S+\.\S+$`,
					"description": "must be a valid email address",
				},
				"address": bson.M{
					"bsonType": "object",
					"required": bson.A{"street", "city", "state"},
					"properties": bson.M{
						"street": bson.M{"bsonType": "string"},
						"city":   bson.M{"bsonType": "string"},
						"state":  bson.M{"bsonType": "string"},
					},
					"description": "address must include street, city, and state",
				},
			},
		},
	}
}

func productValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"product_id", "product_name", "category", "price"},
			"properties": bson.M{
				"_id": bson.M{"bsonType": "objectId"},
				"product_id": bson.M{
					"bsonType":    integerTypes,
					"description": "must be an integer",
				},
				"product_name": bson.M{
					"bsonType":    "string",
					"minLength":   1,
					"description": "must be a non-empty string",
				},
				"category": bson.M{
					"bsonType":    "string",
					"minLength":   1,
					"description": "must be a non-empty string",
				},
				"price": bson.M{
					"bsonType":    integerTypes,
					"minimum":     0,
					"description": "must be a positive number",
				},
			},
		},
	}
}

func orderValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"order_id", "customer_id", "order_date", "status"},
			"properties": bson.M{
				"_id": bson.M{"bsonType": "objectId"},
				"order_id": bson.M{
					"bsonType":    integerTypes,
					"description": "must be an integer",
				},
				"customer_id": bson.M{
					"bsonType":    integerTypes,
					"description": "must be an integer (reference to customers collection)",
				},
				"order_date": bson.M{
					"bsonType":    "date",
					"description": "must be a valid date",
				},
				"status": bson.M{
					"bsonType":    "string",
					"enum":        bson.A{"Shipped", "Processing", "Cancelled", "Delivered"},
					"description": "must be a valid status",
				},
			},
		},
	}
}

func orderItemValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"order_item_id", "order_id", "product_id", "quantity", "price"},
			"properties": bson.M{
				"_id": bson.M{"bsonType": "objectId"},
				"order_item_id": bson.M{
					"bsonType":    integerTypes,
					"description": "must be an integer",
				},
				"order_id": bson.M{
					"bsonType":    integerTypes,
					"description": "must be an integer (reference to orders collection)",
				},
				"product_id": bson.M{
					"bsonType":    integerTypes,
					"description": "must be an integer (reference to products collection)",
				},
				"quantity": bson.M{
					"bsonType":    integerTypes,
					"minimum":     1,
					"description": "must be a positive integer",
				},
				"price": bson.M{
					"bsonType":    integerTypes,
					"minimum":     0,
					"description": "must be a positive number",
				},
			},
		},
	}
}
