package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/salonsuite/salon-core/internal/domain"
)

// MongoSalonRepository implements domain.SalonRepository
type MongoSalonRepository struct {
	collection *mongo.Collection
}

func NewMongoSalonRepository(db *mongo.Database) *MongoSalonRepository {
	coll := db.Collection("salons")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_uid", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})

	return &MongoSalonRepository{
		collection: coll,
	}
}

func (r *MongoSalonRepository) Create(ctx context.Context, salon *domain.Salon) error {
	salon.CreatedAt = time.Now()
	salon.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, salon)
	if err != nil {
		return fmt.Errorf("failed to create salon: %w", err)
	}
	return nil
}

func (r *MongoSalonRepository) GetByID(ctx context.Context, id string) (*domain.Salon, error) {
	var salon domain.Salon
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&salon); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get salon: %w", err)
	}
	return &salon, nil
}

func (r *MongoSalonRepository) GetByOwnerUID(ctx context.Context, ownerUID string) (*domain.Salon, error) {
	var salon domain.Salon
	if err := r.collection.FindOne(ctx, bson.M{"owner_uid": ownerUID}).Decode(&salon); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get salon by owner: %w", err)
	}
	return &salon, nil
}
