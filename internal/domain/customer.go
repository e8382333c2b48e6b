package domain

import (
	"context"
	"time"
)

// Customer is a walk-up client identified through the LINE login handoff.
type Customer struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	SalonID    string    `bson:"salon_id" json:"salon_id"`
	LineUserID string    `bson:"line_user_id" json:"line_user_id"`
	FirstName  string    `bson:"first_name" json:"first_name"`
	LastName   string    `bson:"last_name" json:"last_name"`
	Phone      string    `bson:"phone" json:"phone"`
	Email      string    `bson:"email" json:"email"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// Complete reports whether the record carries everything a customer session
// needs. Incomplete records send the customer through registration before a
// session cookie is issued.
func (c *Customer) Complete() bool {
	return c.ID != "" && c.FirstName != "" && c.LastName != "" && c.Phone != "" && c.Email != ""
}

// LineProfile is what the LINE code exchange yields for a customer.
type LineProfile struct {
	UserID      string
	DisplayName string
	Email       string
	Phone       string
}

// CustomerRepository defines tenant data store operations for customers.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByLineUserID(ctx context.Context, salonID, lineUserID string) (*Customer, error)
	Upsert(ctx context.Context, customer *Customer) error
}
