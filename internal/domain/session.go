package domain

import "time"

// Session describes the login session minted after a successful OTP check.
// It is not persisted; the signed token is the only server-side proof of it.
type Session struct {
	SessionID   string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
