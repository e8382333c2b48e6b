package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/salonsuite/salon-core/internal/domain"
)

// StaffTokenTTL is the fixed staff session lifetime. Expiry is exact: a token
// is rejected the moment exp is reached, with no grace window.
const StaffTokenTTL = 8 * time.Hour

// VerifyStatus classifies why verification failed. It exists for server-side
// audit logs only; client-visible behavior must not vary by cause.
type VerifyStatus int

const (
	VerifyOK VerifyStatus = iota
	VerifyMalformed
	VerifyBadSignature
	VerifyExpired
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifyOK:
		return "ok"
	case VerifyMalformed:
		return "malformed"
	case VerifyBadSignature:
		return "bad_signature"
	case VerifyExpired:
		return "expired"
	}
	return "unknown"
}

// TokenService signs and verifies staff session tokens with a symmetric
// secret loaded once at startup. Both operations are synchronous and safe for
// concurrent use; the only state is the immutable secret.
type TokenService struct {
	secret []byte
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService creates a token service. An empty secret is a configuration
// fault and must abort startup.
func NewTokenService(secret string, logger *zap.Logger) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("staff token secret is not configured")
	}
	return &TokenService{
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Issue signs a staff session token. iat is now and exp is exactly
// now + StaffTokenTTL.
func (t *TokenService) Issue(staff *domain.Staff) (string, *domain.StaffClaims, error) {
	now := t.now()
	claims := &domain.StaffClaims{
		StaffID: staff.ID,
		SalonID: staff.SalonID,
		Role:    staff.Role,
		Name:    staff.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StaffTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign staff token: %w", err)
	}
	return signed, claims, nil
}

// Verify recomputes the signature and checks expiry. Failures are uniform to
// the caller: nil claims plus a status meant only for audit logging. The role
// claim is not validated here; an unknown role simply ranks below staff at
// permission time.
func (t *TokenService) Verify(tokenString string) (*domain.StaffClaims, VerifyStatus) {
	claims := &domain.StaffClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		status := VerifyMalformed
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			status = VerifyExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			status = VerifyBadSignature
		}
		t.logger.Debug("staff token rejected", zap.String("cause", status.String()))
		return nil, status
	}
	if !parsed.Valid {
		return nil, VerifyMalformed
	}
	return claims, VerifyOK
}
