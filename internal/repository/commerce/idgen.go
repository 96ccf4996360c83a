package commerce

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Additional-Code/bazaar/internal/analytics"
	"github.com/Additional-Code/bazaar/internal/database"
	"github.com/Additional-Code/bazaar/internal/entity"
)

// Sequence names for counter-backed ID allocation.
const (
	SeqOrderID     = "order_id"
	SeqOrderItemID = "order_item_id"
)

// maxRow is the single document produced by the $group/$max pipeline.
type maxRow struct {
	Max *int64 `bson:"max"`
}

// nextFromRow turns an aggregation result into the next identifier. found
// reports whether the collection held any value for the field.
func nextFromRow(row maxRow, hasRow bool) (int64, bool) {
	if !hasRow || row.Max == nil {
		return 0, false
	}
	return *row.Max + 1, true
}

// NextIDFromMax returns one more than the current maximum of field across
// the named collection, or ok=false when the collection is empty. Two
// concurrent callers can mint the same value; NextID is the allocator to
// use on write paths.
func (r *Repository) NextIDFromMax(ctx context.Context, collection, field string) (int64, bool, error) {
	cursor, err := r.conns.Database.Collection(collection).Aggregate(ctx, analytics.MaxFieldPipeline(field))
	if err != nil {
		return 0, false, fmt.Errorf("max %s.%s: %w", collection, field, err)
	}
	defer cursor.Close(ctx)

	var row maxRow
	hasRow := cursor.Next(ctx)
	if hasRow {
		if err := cursor.Decode(&row); err != nil {
			return 0, false, fmt.Errorf("decode max %s.%s: %w", collection, field, err)
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, false, err
	}

	next, ok := nextFromRow(row, hasRow)
	return next, ok, nil
}

// NextID atomically advances the named counter and returns the new value.
// Safe under concurrent use: the $inc runs under findAndModify on a single
// counter document.
func (r *Repository) NextID(ctx context.Context, sequence string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter entity.Counter
	err := r.conns.Counters().FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("advance counter %s: %w", sequence, err)
	}
	return counter.Value, nil
}

// SeedCounter raises the named counter to at least the current maximum of
// field in the source collection. Idempotent; meant to run after fixture
// loads so counter-minted ids never collide with loaded data.
func (r *Repository) SeedCounter(ctx context.Context, sequence, collection, field string) error {
	next, ok, err := r.NextIDFromMax(ctx, collection, field)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	_, err = r.conns.Counters().UpdateOne(ctx,
		bson.M{"_id": sequence},
		bson.M{"$max": bson.M{"value": next - 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("seed counter %s: %w", sequence, err)
	}
	return nil
}

// SeedCounters seeds every sequence used on the order write path.
func (r *Repository) SeedCounters(ctx context.Context) error {
	if err := r.SeedCounter(ctx, SeqOrderID, database.CollOrders, "order_id"); err != nil {
		return err
	}
	return r.SeedCounter(ctx, SeqOrderItemID, database.CollOrderItems, "order_item_id")
}
