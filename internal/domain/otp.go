package domain

// OTPRequirement is the body of GET auth/otp/required.
type OTPRequirement struct {
	Required bool `json:"otp_required"`
}

// OTPVerifyPayload is the body of POST auth/otp/verify.
// The code is forwarded as typed; format checks are the server's job.
type OTPVerifyPayload struct {
	Code string `json:"code" validate:"required"`
}

// Reasons reported in a negative OTPVerifyResult.
const (
	OTPReasonNotRequested    = "not_requested"
	OTPReasonExpired         = "expired"
	OTPReasonInvalidCode     = "invalid_code"
	OTPReasonTooManyAttempts = "too_many_attempts"
)

// OTPVerifyResult is the body of a 200 response to POST auth/otp/verify.
// A rejected code is a normal result with Verified=false, not an HTTP error.
type OTPVerifyResult struct {
	Verified bool     `json:"verified"`
	Reason   string   `json:"reason,omitempty"`
	Token    string   `json:"token,omitempty"`
	Session  *Session `json:"session,omitempty"`
}
