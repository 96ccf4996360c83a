package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func stageNames(p mongo.Pipeline) []string {
	names := make([]string, len(p))
	for i, stage := range p {
		names[i] = stage[0].Key
	}
	return names
}

func stage(t *testing.T, p mongo.Pipeline, name string) bson.M {
	t.Helper()
	for _, s := range p {
		if s[0].Key == name {
			doc, ok := s[0].Value.(bson.M)
			require.True(t, ok, "stage %s should be a bson.M", name)
			return doc
		}
	}
	t.Fatalf("pipeline has no %s stage", name)
	return nil
}

func TestRevenueByCategoryPipeline(t *testing.T) {
	p := RevenueByCategoryPipeline()

	assert.Equal(t, []string{"$lookup", "$unwind", "$addFields", "$group", "$project", "$sort"}, stageNames(p))

	lookup := stage(t, p, "$lookup")
	assert.Equal(t, "products", lookup["from"])
	assert.Equal(t, "product_id", lookup["localField"])
	assert.Equal(t, "product_id", lookup["foreignField"])

	group := stage(t, p, "$group")
	assert.Equal(t, "$product_info.category", group["_id"])

	sort := stage(t, p, "$sort")
	assert.Equal(t, -1, sort["total_revenue"], "revenue sorts descending")
}

func TestDeliveryPipelinesMatchOnlyDeliveredOrders(t *testing.T) {
	for name, p := range map[string]mongo.Pipeline{
		"average":   AverageDeliveryTimePipeline(),
		"per order": DeliveryTimePerOrderPipeline(),
	} {
		match := stage(t, p, "$match")
		assert.Equal(t, bson.M{"delivery_date": bson.M{"$exists": true}}, match, name)
	}
}

func TestAverageDeliveryTimePipelineGroupsFleetWide(t *testing.T) {
	p := AverageDeliveryTimePipeline()

	group := stage(t, p, "$group")
	assert.Nil(t, group["_id"], "average collapses to one row")

	project := stage(t, p, "$project")
	assert.Contains(t, project, "average_delivery_time_days")
}

func TestDeliveryTimePerOrderPipelineGroupsByOrder(t *testing.T) {
	p := DeliveryTimePerOrderPipeline()

	group := stage(t, p, "$group")
	assert.Equal(t, "$order_id", group["_id"])

	sort := stage(t, p, "$sort")
	assert.Equal(t, -1, sort["average_delivery_time_ms"], "slowest orders first")
}

func TestCustomersByStatePipeline(t *testing.T) {
	p := CustomersByStatePipeline()

	group := stage(t, p, "$group")
	assert.Equal(t, "$address.state", group["_id"])
	assert.Equal(t, bson.M{"$sum": 1}, group["customer_count"])

	sort := stage(t, p, "$sort")
	assert.Equal(t, -1, sort["customer_count"])
}

func TestTopProductsPerOrderPipelineKeepsThree(t *testing.T) {
	p := TopProductsPerOrderPipeline()

	// Price sort must happen before the group that pushes products, so the
	// first three pushed entries are the most expensive ones.
	names := stageNames(p)
	assert.Equal(t, []string{"$lookup", "$unwind", "$sort", "$group", "$project"}, names)

	sort := stage(t, p, "$sort")
	assert.Equal(t, -1, sort["product_details.price"])

	project := stage(t, p, "$project")
	slice, ok := project["top_products"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.A{"$top_products", 3}, slice["$slice"])
}

func TestRevenueByProductPipeline(t *testing.T) {
	p := RevenueByProductPipeline()

	lookup := stage(t, p, "$lookup")
	assert.Equal(t, "order_items", lookup["from"])
	assert.Equal(t, "order_id", lookup["localField"])

	group := stage(t, p, "$group")
	assert.Equal(t, "$order_details.product_id", group["_id"])
}

func TestMaxFieldPipeline(t *testing.T) {
	p := MaxFieldPipeline("order_id")
	require.Len(t, p, 1)

	group := stage(t, p, "$group")
	assert.Nil(t, group["_id"])
	assert.Equal(t, bson.M{"$max": "$order_id"}, group["max"])
}
