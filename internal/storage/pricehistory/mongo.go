package pricehistory

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mvillard/patrimoine/internal/core"
)

// MongoStore persists price records in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store backed by the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("price_history")}
}

type recordDoc struct {
	AssetID    string  `bson:"asset_id"`
	Price      float64 `bson:"price"`
	Source     string  `bson:"source"`
	RecordedAt int64   `bson:"recorded_at"`
}

func toRecordDoc(rec core.PriceRecord) recordDoc {
	return recordDoc{
		AssetID:    rec.AssetID,
		Price:      rec.Price,
		Source:     rec.Source,
		RecordedAt: rec.RecordedAt.UnixMilli(),
	}
}

func fromRecordDoc(d recordDoc) core.PriceRecord {
	return core.PriceRecord{
		AssetID:    d.AssetID,
		Price:      d.Price,
		Source:     d.Source,
		RecordedAt: time.UnixMilli(d.RecordedAt).UTC(),
	}
}

// Append adds one record to an asset's series.
func (m *MongoStore) Append(ctx context.Context, rec core.PriceRecord) error {
	if _, err := m.coll.InsertOne(ctx, toRecordDoc(rec)); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// Since returns records recorded at or after the cutoff, oldest first.
func (m *MongoStore) Since(ctx context.Context, assetID string, cutoff time.Time) ([]core.PriceRecord, error) {
	filter := bson.M{
		"asset_id":    assetID,
		"recorded_at": bson.M{"$gte": cutoff.UnixMilli()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}})
	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer cur.Close(ctx)

	var result []core.PriceRecord
	for cur.Next(ctx) {
		var d recordDoc
		if err := cur.Decode(&d); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		result = append(result, fromRecordDoc(d))
	}
	if err := cur.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return result, nil
}

// Latest returns the most recent record for an asset.
func (m *MongoStore) Latest(ctx context.Context, assetID string) (*core.PriceRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "recorded_at", Value: -1}})
	var d recordDoc
	err := m.coll.FindOne(ctx, bson.M{"asset_id": assetID}, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNoHistory
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	rec := fromRecordDoc(d)
	return &rec, nil
}

// DeleteOlderThan removes records recorded before the cutoff and
// returns them.
func (m *MongoStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]core.PriceRecord, error) {
	filter := bson.M{"recorded_at": bson.M{"$lt": cutoff.UnixMilli()}}

	cur, err := m.coll.Find(ctx, filter)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	var removed []core.PriceRecord
	for cur.Next(ctx) {
		var d recordDoc
		if err := cur.Decode(&d); err != nil {
			cur.Close(ctx)
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		removed = append(removed, fromRecordDoc(d))
	}
	if err := cur.Err(); err != nil {
		cur.Close(ctx)
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	cur.Close(ctx)

	if len(removed) == 0 {
		return nil, nil
	}
	if _, err := m.coll.DeleteMany(ctx, filter); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return removed, nil
}

var _ Store = (*MongoStore)(nil)
