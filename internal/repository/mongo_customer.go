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

// MongoCustomerRepository implements domain.CustomerRepository
type MongoCustomerRepository struct {
	collection *mongo.Collection
}

func NewMongoCustomerRepository(db *mongo.Database) *MongoCustomerRepository {
	coll := db.Collection("customers")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// One customer record per LINE account per salon.
	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "salon_id", Value: 1}, {Key: "line_user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})

	return &MongoCustomerRepository{
		collection: coll,
	}
}

func (r *MongoCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

func (r *MongoCustomerRepository) GetByLineUserID(ctx context.Context, salonID, lineUserID string) (*domain.Customer, error) {
	filter := bson.M{"salon_id": salonID, "line_user_id": lineUserID}

	var customer domain.Customer
	if err := r.collection.FindOne(ctx, filter).Decode(&customer); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer by line user: %w", err)
	}
	return &customer, nil
}

func (r *MongoCustomerRepository) Upsert(ctx context.Context, customer *domain.Customer) error {
	customer.UpdatedAt = time.Now()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = customer.UpdatedAt
	}

	filter := bson.M{"_id": customer.ID}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, filter, customer, opts); err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}
