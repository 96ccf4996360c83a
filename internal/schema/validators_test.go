package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func schemaFor(t *testing.T, coll string) bson.M {
	t.Helper()
	v, ok := Validators()[coll]
	require.True(t, ok, "no validator for %s", coll)
	doc, ok := v["$jsonSchema"].(bson.M)
	require.True(t, ok)
	return doc
}

func TestValidatorsCoverAllCollections(t *testing.T) {
	v := Validators()
	for _, coll := range []string{"customers", "products", "orders", "order_items"} {
		assert.Contains(t, v, coll)
	}
	assert.Len(t, v, 4)
}

func TestRequiredFields(t *testing.T) {
	cases := map[string]bson.A{
		"customers":   {"customer_id", "name", "email", "address"},
		"products":    {"product_id", "product_name", "category", "price"},
		"orders":      {"order_id", "customer_id", "order_date", "status"},
		"order_items": {"order_item_id", "order_id", "product_id", "quantity", "price"},
	}
	for coll, want := range cases {
		doc := schemaFor(t, coll)
		assert.Equal(t, want, doc["required"], coll)
	}
}

func TestOrderStatusEnum(t *testing.T) {
	doc := schemaFor(t, "orders")
	props := doc["properties"].(bson.M)
	status := props["status"].(bson.M)

	assert.Equal(t, bson.A{"Shipped", "Processing", "Cancelled", "Delivered"}, status["enum"])
}

func TestIntegerFieldsAcceptBothWidths(t *testing.T) {
	doc := schemaFor(t, "order_items")
	props := doc["properties"].(bson.M)

	for _, field := range []string{"order_item_id", "order_id", "product_id", "quantity", "price"} {
		prop := props[field].(bson.M)
		assert.Equal(t, bson.A{"int", "long"}, prop["bsonType"], field)
	}
}

func TestQuantityAndPriceMinimums(t *testing.T) {
	doc := schemaFor(t, "order_items")
	props := doc["properties"].(bson.M)

	assert.Equal(t, 1, props["quantity"].(bson.M)["minimum"])
	assert.Equal(t, 0, props["price"].(bson.M)["minimum"])
}
