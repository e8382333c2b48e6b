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

// MongoStaffRepository implements domain.StaffRepository
type MongoStaffRepository struct {
	collection *mongo.Collection
}

func NewMongoStaffRepository(db *mongo.Database) *MongoStaffRepository {
	coll := db.Collection("staffs")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Email is unique per salon, not globally.
	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "salon_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})

	return &MongoStaffRepository{
		collection: coll,
	}
}

func (r *MongoStaffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, staff)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

func (r *MongoStaffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	var staff domain.Staff
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&staff); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &staff, nil
}

func (r *MongoStaffRepository) GetByEmail(ctx context.Context, salonID, email string) (*domain.Staff, error) {
	filter := bson.M{"salon_id": salonID, "email": email}

	var staff domain.Staff
	if err := r.collection.FindOne(ctx, filter).Decode(&staff); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff by email: %w", err)
	}
	return &staff, nil
}
