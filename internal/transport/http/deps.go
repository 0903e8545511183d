package http

import (
	"context"
	"time"

	"github.com/modem-console/internal/domain"
	jwtinfra "github.com/modem-console/internal/infrastructure/jwt"
)

// VerificationRepository is the minimal interface the router requires from a verification store.
type VerificationRepository interface {
	Put(ctx context.Context, v *domain.OTPVerification, notBefore int64) error
	Get(ctx context.Context, principalID, verType string) (*domain.OTPVerification, error)
	IncrementAttempts(ctx context.Context, principalID, verType string, limit int) (int, error)
	Delete(ctx context.Context, principalID, verType string) error
}

// SMSSender delivers one-time codes.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// TokenProvider signs session tokens and verifies them on authenticated routes.
type TokenProvider interface {
	Sign(principalID, sessionID string, issuedAt time.Time) (string, time.Time, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	VerificationRepo VerificationRepository
	SMSSender        SMSSender
	JWTProvider      TokenProvider
	// Now overrides the service clock; nil means time.Now.
	Now func() time.Time
}
