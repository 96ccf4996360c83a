package fixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodeConvertsExtendedJSON(t *testing.T) {
	data := []byte(`[
		{"_id": {"$oid": "66b0000000000000000000c9"}, "order_id": 1, "status": "Processing"},
		{"_id": {"$oid": "66b0000000000000000000ca"}, "order_id": 2, "status": "Delivered"}
	]`)

	docs, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	id, ok := findValue(docs[0], "_id")
	require.True(t, ok)
	oid, ok := id.(primitive.ObjectID)
	require.True(t, ok, "_id should decode to an ObjectID, got %T", id)
	assert.Equal(t, "66b0000000000000000000c9", oid.Hex())

	orderID, ok := findValue(docs[0], "order_id")
	require.True(t, ok)
	assert.IsType(t, int32(0), orderID, "plain integers keep an integer BSON width")
}

func TestDecodeRejectsNonArray(t *testing.T) {
	_, err := Decode([]byte(`{"order_id": 1}`))
	assert.Error(t, err)
}

func TestDecodeRejectsMalformedDocument(t *testing.T) {
	_, err := Decode([]byte(`[{"_id": {"$oid": "not-hex"}}]`))
	assert.Error(t, err)
}

func TestConvertDates(t *testing.T) {
	docs := []bson.D{
		{
			{Key: "order_id", Value: int32(1)},
			{Key: "order_date", Value: "2024-05-12T15:53:00Z"},
			{Key: "delivery_date", Value: "2024-05-15T15:00:00Z"},
		},
		{
			{Key: "order_id", Value: int32(2)},
			{Key: "order_date", Value: "2024-04-09T22:46:00Z"},
		},
	}

	require.NoError(t, ConvertDates(docs))

	ordered, ok := findValue(docs[0], "order_date")
	require.True(t, ok)
	ts, ok := ordered.(time.Time)
	require.True(t, ok, "order_date should become a time.Time, got %T", ordered)
	assert.Equal(t, time.Date(2024, 5, 12, 15, 53, 0, 0, time.UTC), ts)

	delivered, ok := findValue(docs[0], "delivery_date")
	require.True(t, ok)
	assert.IsType(t, time.Time{}, delivered)

	// Untracked fields pass through untouched.
	id, ok := findValue(docs[1], "order_id")
	require.True(t, ok)
	assert.Equal(t, int32(2), id)
}

func TestConvertDatesRejectsBadFormat(t *testing.T) {
	docs := []bson.D{{{Key: "order_date", Value: "12/05/2024"}}}
	assert.Error(t, ConvertDates(docs))
}

func TestConvertDatesSkipsNonStringValues(t *testing.T) {
	now := time.Now()
	docs := []bson.D{{{Key: "order_date", Value: now}}}

	require.NoError(t, ConvertDates(docs))

	v, ok := findValue(docs[0], "order_date")
	require.True(t, ok)
	assert.Equal(t, now, v)
}

func findValue(doc bson.D, key string) (any, bool) {
	for _, elem := range doc {
		if elem.Key == key {
			return elem.Value, true
		}
	}
	return nil, false
}
