package domain

import (
	"context"
	"time"
)

// Salon is a tenant: the unit of data isolation for caches and sessions.
// The profile snapshot below is what gets cached per tenant.
type Salon struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Address   string    `bson:"address" json:"address"`
	Phone     string    `bson:"phone" json:"phone"`
	LogoURL   string    `bson:"logo_url" json:"logo_url"`
	OwnerUID  string    `bson:"owner_uid" json:"owner_uid"` // external identity provider subject
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SalonRepository defines tenant data store operations for salons.
type SalonRepository interface {
	GetByID(ctx context.Context, id string) (*Salon, error)
	GetByOwnerUID(ctx context.Context, ownerUID string) (*Salon, error)
	Create(ctx context.Context, salon *Salon) error
}
