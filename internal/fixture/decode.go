package fixture

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// dateLayout is the wire format date-like fixture fields arrive in.
const dateLayout = "2006-01-02T15:04:05Z"

// dateFields are the fixture fields stored as strings that must become BSON
// dates before insertion.
var dateFields = map[string]struct{}{
	"order_date":    {},
	"delivery_date": {},
}

// Decode parses a JSON fixture file (an array of documents) into BSON
// documents. Extended JSON forms such as {"$oid": …} decode to their native
// types, and plain integers keep an integer BSON width.
func Decode(data []byte) ([]bson.D, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("fixture is not a JSON array: %w", err)
	}

	docs := make([]bson.D, 0, len(raws))
	for i, raw := range raws {
		var doc bson.D
		if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
			return nil, fmt.Errorf("decode fixture document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ConvertDates rewrites order_date and delivery_date string values into
// time.Time, preserving the source instant. Non-string values pass through
// untouched.
func ConvertDates(docs []bson.D) error {
	for i := range docs {
		for j, elem := range docs[i] {
			if _, ok := dateFields[elem.Key]; !ok {
				continue
			}
			s, ok := elem.Value.(string)
			if !ok {
				continue
			}
			t, err := time.Parse(dateLayout, s)
			if err != nil {
				return fmt.Errorf("parse %s %q: %w", elem.Key, s, err)
			}
			docs[i][j].Value = t
		}
	}
	return nil
}
