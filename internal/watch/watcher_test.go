package watch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStrippedKeepsOnlyForwardedFields(t *testing.T) {
	key, err := bson.Marshal(bson.D{{Key: "_id", Value: "abc"}})
	require.NoError(t, err)
	full, err := bson.Marshal(bson.D{{Key: "order_id", Value: int64(5)}})
	require.NoError(t, err)

	doc := stripped(event{
		OperationType: "insert",
		DocumentKey:   key,
		FullDocument:  full,
	})

	payload, err := bson.MarshalExtJSON(doc, false, false)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "insert", decoded["operation_type"])
	assert.Contains(t, decoded, "document_key")
	assert.Contains(t, decoded, "full_document")
}

func TestStrippedOmitsAbsentDocuments(t *testing.T) {
	doc := stripped(event{OperationType: "delete"})

	require.Len(t, doc, 1)
	assert.Equal(t, "operation_type", doc[0].Key)
}
