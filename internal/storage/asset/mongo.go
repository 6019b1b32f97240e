// internal/storage/asset/mongo.go
package asset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mvillard/patrimoine/internal/core"
)

// MongoRepository persists assets in a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a repository backed by the given database.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection("assets")}
}

type assetDoc struct {
	ID               string  `bson:"_id"`
	Type             string  `bson:"type"`
	Symbol           string  `bson:"symbol,omitempty"`
	Name             string  `bson:"name"`
	Brand            string  `bson:"brand,omitempty"`
	Model            string  `bson:"model,omitempty"`
	Year             int     `bson:"year,omitempty"`
	Condition        string  `bson:"condition,omitempty"`
	Mileage          int     `bson:"mileage,omitempty"`
	Quantity         float64 `bson:"quantity"`
	PurchasePrice    float64 `bson:"purchase_price"`
	Currency         string  `bson:"currency"`
	CurrentPrice     float64 `bson:"current_price"`
	TotalValue       float64 `bson:"total_value"`
	TotalGain        float64 `bson:"total_gain"`
	TotalGainPercent float64 `bson:"total_gain_percent"`
	LastPriceUpdate  int64   `bson:"last_price_update,omitempty"`
	Active           bool    `bson:"active"`
}

func toDoc(a core.Asset) assetDoc {
	d := assetDoc{
		ID:               a.ID,
		Type:             string(a.Type),
		Symbol:           a.Symbol,
		Name:             a.Name,
		Brand:            a.Brand,
		Model:            a.Model,
		Year:             a.Year,
		Condition:        a.Condition,
		Mileage:          a.Mileage,
		Quantity:         a.Quantity,
		PurchasePrice:    a.PurchasePrice,
		Currency:         a.Currency,
		CurrentPrice:     a.CurrentPrice,
		TotalValue:       a.TotalValue,
		TotalGain:        a.TotalGain,
		TotalGainPercent: a.TotalGainPercent,
		Active:           a.Active,
	}
	if !a.LastPriceUpdate.IsZero() {
		d.LastPriceUpdate = a.LastPriceUpdate.UnixMilli()
	}
	return d
}

func fromDoc(d assetDoc) core.Asset {
	a := core.Asset{
		ID:               d.ID,
		Type:             core.AssetType(d.Type),
		Symbol:           d.Symbol,
		Name:             d.Name,
		Brand:            d.Brand,
		Model:            d.Model,
		Year:             d.Year,
		Condition:        d.Condition,
		Mileage:          d.Mileage,
		Quantity:         d.Quantity,
		PurchasePrice:    d.PurchasePrice,
		Currency:         d.Currency,
		CurrentPrice:     d.CurrentPrice,
		TotalValue:       d.TotalValue,
		TotalGain:        d.TotalGain,
		TotalGainPercent: d.TotalGainPercent,
		Active:           d.Active,
	}
	if d.LastPriceUpdate > 0 {
		a.LastPriceUpdate = time.UnixMilli(d.LastPriceUpdate).UTC()
	}
	return a
}

// Save inserts or replaces an asset, assigning a UUID when absent.
func (m *MongoRepository) Save(ctx context.Context, a *core.Asset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, toDoc(*a), opts); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// GetByID retrieves an asset by ID.
func (m *MongoRepository) GetByID(ctx context.Context, id string) (*core.Asset, error) {
	var d assetDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrAssetNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	a := fromDoc(d)
	return &a, nil
}

// ListTrackable returns active assets eligible for automatic refresh.
func (m *MongoRepository) ListTrackable(ctx context.Context) ([]core.Asset, error) {
	trackable := make([]string, 0, len(core.AllAssetTypes))
	for _, t := range core.AllAssetTypes {
		if t.IsTrackable() {
			trackable = append(trackable, string(t))
		}
	}
	filter := bson.M{
		"active": true,
		"type":   bson.M{"$in": trackable},
	}
	cur, err := m.coll.Find(ctx, filter)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer cur.Close(ctx)

	var result []core.Asset
	for cur.Next(ctx) {
		var d assetDoc
		if err := cur.Decode(&d); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		result = append(result, fromDoc(d))
	}
	if err := cur.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return result, nil
}

// UpdateValuation writes the cached valuation fields by ID.
func (m *MongoRepository) UpdateValuation(ctx context.Context, id string, v Valuation) error {
	update := bson.M{"$set": bson.M{
		"current_price":      v.CurrentPrice,
		"total_value":        v.TotalValue,
		"total_gain":         v.TotalGain,
		"total_gain_percent": v.TotalGainPercent,
		"last_price_update":  v.LastPriceUpdate.UnixMilli(),
	}}
	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if res.MatchedCount == 0 {
		return core.ErrAssetNotFound
	}
	return nil
}

var _ Repository = (*MongoRepository)(nil)
