package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/modem-console/internal/domain"
	"github.com/modem-console/internal/pkg/id"
	"github.com/modem-console/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const codeDigits = 6

// VerificationStore persists the pending code of each principal.
type VerificationStore interface {
	// Put stores v unless a pending record created after notBefore exists,
	// in which case it returns domain.ErrTooManyRequests.
	Put(ctx context.Context, v *domain.OTPVerification, notBefore int64) error
	Get(ctx context.Context, principalID, verType string) (*domain.OTPVerification, error)
	// IncrementAttempts atomically bumps the attempt counter while it is below
	// limit and returns the new count. It returns domain.ErrNotFound when the
	// record is gone and domain.ErrTooManyRequests when the limit is reached.
	IncrementAttempts(ctx context.Context, principalID, verType string, limit int) (int, error)
	Delete(ctx context.Context, principalID, verType string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type TokenSigner interface {
	Sign(principalID, sessionID string, issuedAt time.Time) (string, time.Time, error)
}

// Service is the server side of the OTP login handshake.
type Service interface {
	// Requirement reports whether logins must pass an OTP check.
	Requirement(ctx context.Context) domain.OTPRequirement
	// Dispatch creates a fresh code, replacing any pending one, and sends it
	// to the principal's phone. Dispatches closer together than the cooldown
	// fail with domain.ErrTooManyRequests.
	Dispatch(ctx context.Context) error
	// Verify checks a submitted code. Rejections are reported in the result;
	// an error means the check itself could not be carried out.
	Verify(ctx context.Context, payload domain.OTPVerifyPayload) (*domain.OTPVerifyResult, error)
}

type ServiceDeps struct {
	VerificationRepo VerificationStore
	SMSSender        SMSSender
	JWTProvider      TokenSigner
	Principal        domain.Principal
	Required         bool
	CodeTTL          time.Duration
	MaxAttempts      int
	DispatchCooldown time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type service struct {
	verificationRepo VerificationStore
	smsSender        SMSSender
	jwtProvider      TokenSigner
	principal        domain.Principal
	required         bool
	codeTTL          time.Duration
	maxAttempts      int
	dispatchCooldown time.Duration
	now              func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	maxAttempts := deps.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &service{
		verificationRepo: deps.VerificationRepo,
		smsSender:        deps.SMSSender,
		jwtProvider:      deps.JWTProvider,
		principal:        deps.Principal,
		required:         deps.Required,
		codeTTL:          deps.CodeTTL,
		maxAttempts:      maxAttempts,
		dispatchCooldown: deps.DispatchCooldown,
		now:              now,
	}
}

func (s *service) Requirement(_ context.Context) domain.OTPRequirement {
	return domain.OTPRequirement{Required: s.required}
}

func (s *service) Dispatch(ctx context.Context) error {
	if s.principal.Phone == "" {
		return fmt.Errorf("no phone number configured for principal %q", s.principal.ID)
	}
	code, err := generateCode(codeDigits)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	now := s.now()
	v := &domain.OTPVerification{
		PrincipalID: s.principal.ID,
		Type:        domain.VerificationTypeOTP,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(s.codeTTL).Unix(),
		CreatedAt:   now.Unix(),
	}
	if err := s.verificationRepo.Put(ctx, v, now.Add(-s.dispatchCooldown).Unix()); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	msg := fmt.Sprintf("Your modem console login code is %s. It expires in %d minutes.", code, int(s.codeTTL.Minutes()))
	if err := s.smsSender.SendSMS(ctx, s.principal.Phone, msg); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	slog.Info("otp dispatched", "principal_id", s.principal.ID, "expires_at", v.ExpiresAt)
	return nil
}

func (s *service) Verify(ctx context.Context, payload domain.OTPVerifyPayload) (*domain.OTPVerifyResult, error) {
	if !s.required {
		return s.issueSession()
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBadRequest, err)
	}

	v, err := s.verificationRepo.Get(ctx, s.principal.ID, domain.VerificationTypeOTP)
	if errors.Is(err, domain.ErrNotFound) {
		return rejected(domain.OTPReasonNotRequested), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load otp: %w", err)
	}
	if v.ExpiresAt < s.now().Unix() {
		s.discard(ctx)
		return rejected(domain.OTPReasonExpired), nil
	}

	// the attempt is charged before the comparison so concurrent guesses
	// cannot share one counter value
	attempts, err := s.verificationRepo.IncrementAttempts(ctx, s.principal.ID, domain.VerificationTypeOTP, s.maxAttempts)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return rejected(domain.OTPReasonNotRequested), nil
	case errors.Is(err, domain.ErrTooManyRequests):
		s.discard(ctx)
		return rejected(domain.OTPReasonTooManyAttempts), nil
	case err != nil:
		return nil, fmt.Errorf("record otp attempt: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(payload.Code))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		slog.Warn("otp mismatch", "principal_id", s.principal.ID, "attempts", attempts)
		if attempts >= s.maxAttempts {
			s.discard(ctx)
			return rejected(domain.OTPReasonTooManyAttempts), nil
		}
		return rejected(domain.OTPReasonInvalidCode), nil
	}
	if err != nil {
		return nil, fmt.Errorf("compare otp: %w", err)
	}

	s.discard(ctx)
	return s.issueSession()
}

func (s *service) discard(ctx context.Context) {
	if err := s.verificationRepo.Delete(ctx, s.principal.ID, domain.VerificationTypeOTP); err != nil {
		slog.Warn("failed to delete otp verification record", "principal_id", s.principal.ID, "err", err)
	}
}

func (s *service) issueSession() (*domain.OTPVerifyResult, error) {
	now := s.now().UTC()
	sessionID := id.New()
	token, expiresAt, err := s.jwtProvider.Sign(s.principal.ID, sessionID, now)
	if err != nil {
		return nil, err
	}
	return &domain.OTPVerifyResult{
		Verified: true,
		Token:    token,
		Session: &domain.Session{
			SessionID:   sessionID,
			PrincipalID: s.principal.ID,
			IssuedAt:    now,
			ExpiresAt:   expiresAt,
		},
	}, nil
}

func rejected(reason string) *domain.OTPVerifyResult {
	return &domain.OTPVerifyResult{Verified: false, Reason: reason}
}

// generateCode returns n uniformly distributed decimal digits.
func generateCode(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
