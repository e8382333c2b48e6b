package domain

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Staff represents a salon staff member able to sign in with credentials.
type Staff struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	SalonID      string    `bson:"salon_id" json:"salon_id"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	Role         string    `bson:"role" json:"role"` // staff | manager | admin
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// StaffClaims is the staff session token payload. Tokens are stateless:
// there is no server-side record, so the signature and exp claim are the only
// authority for the token's lifetime.
type StaffClaims struct {
	StaffID string `json:"staff_id"`
	SalonID string `json:"salon_id"`
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// StaffRepository defines tenant data store operations for staff records.
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*Staff, error)
	GetByEmail(ctx context.Context, salonID, email string) (*Staff, error)
	Create(ctx context.Context, staff *Staff) error
}
