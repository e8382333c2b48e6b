package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/salonsuite/salon-core/internal/domain"
)

// OwnerIdentityClient verifies the external identity provider token for salon
// owners. Only presence of a valid identity matters to this subsystem; the
// provider's own token format is its concern.
// The interface allows mocking for tests.
type OwnerIdentityClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// LineIdentityClient completes the LINE login handoff by exchanging the
// authorization code for the customer profile.
type LineIdentityClient interface {
	ExchangeProfile(ctx context.Context, code string) (*domain.LineProfile, error)
}

// AuthService handles staff credential checks and the customer LINE handoff
type AuthService struct {
	staffRepo    domain.StaffRepository
	customerRepo domain.CustomerRepository
	line         LineIdentityClient
	tokens       *TokenService
	logger       *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	staffRepo domain.StaffRepository,
	customerRepo domain.CustomerRepository,
	line LineIdentityClient,
	tokens *TokenService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		staffRepo:    staffRepo,
		customerRepo: customerRepo,
		line:         line,
		tokens:       tokens,
		logger:       logger,
	}
}

// StaffLogin checks credentials against the tenant data store and issues a
// staff session token. Every authentication failure collapses to
// ErrInvalidCredentials so the response cannot leak whether the account
// exists.
func (s *AuthService) StaffLogin(ctx context.Context, salonID, email, password string) (*domain.Staff, string, error) {
	staff, err := s.staffRepo.GetByEmail(ctx, salonID, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up staff: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("staff password mismatch", zap.String("staff_id", staff.ID))
		return nil, "", domain.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(staff)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue staff token: %w", err)
	}
	return staff, token, nil
}

// CompleteLineLogin consumes a pre-login intent and turns the LINE handoff
// into a customer record. First-time customers are created from the exchanged
// profile; repeat logins reuse the existing record.
func (s *AuthService) CompleteLineLogin(ctx context.Context, intent *domain.PreLoginIntent, code string) (*domain.Customer, error) {
	profile, err := s.line.ExchangeProfile(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("line code exchange failed: %w", err)
	}

	customer, err := s.customerRepo.GetByLineUserID(ctx, intent.StoreID, profile.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		first, last := splitDisplayName(profile.DisplayName)
		now := time.Now()
		customer = &domain.Customer{
			ID:         ulid.Make().String(),
			SalonID:    intent.StoreID,
			LineUserID: profile.UserID,
			FirstName:  first,
			LastName:   last,
			Phone:      profile.Phone,
			Email:      profile.Email,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.customerRepo.Upsert(ctx, customer); err != nil {
			return nil, fmt.Errorf("failed to store customer: %w", err)
		}
		return customer, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	return customer, nil
}

// SessionFor builds the immutable cookie session for a complete customer
// record. A new login always yields a fresh session; sessions are never
// patched in place.
func SessionFor(c *domain.Customer) *domain.CustomerSession {
	return &domain.CustomerSession{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Email:     c.Email,
	}
}

func splitDisplayName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
