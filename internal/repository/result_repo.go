package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"compassbot/internal/model"
)

// ResultRepo archives completed quiz results.
type ResultRepo interface {
	Create(ctx context.Context, result *model.Result) error
	GetByID(ctx context.Context, id string) (*model.Result, error)
	List(ctx context.Context, limit int64) ([]*model.Result, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

// NewResultRepo creates a mongo-backed result repository.
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{collection: db.Collection("results")}
}

func (r *resultRepo) Create(ctx context.Context, result *model.Result) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	res, err := r.collection.InsertOne(ctx, result)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		result.ID = oid.Hex()
	}
	return nil
}

func (r *resultRepo) GetByID(ctx context.Context, id string) (*model.Result, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var result model.Result
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepo) List(ctx context.Context, limit int64) ([]*model.Result, error) {
	opts := options.Find().
		SetSort(bson.M{"completedAt": -1}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.Result
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
