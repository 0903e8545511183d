package domain

// OTPVerification stores the pending one-time passcode of a principal.
// PK: principal_id, SK: type ("otp").
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OTPVerification struct {
	PrincipalID string `json:"principal_id" dynamodbav:"principal_id"`
	Type        string `json:"type" dynamodbav:"type"`
	CodeHash    string `json:"-" dynamodbav:"code_hash"` // bcrypt
	Attempts    int    `json:"attempts" dynamodbav:"attempts"`
	ExpiresAt   int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt   int64  `json:"created_at" dynamodbav:"created_at"`
}

// VerificationTypeOTP is the sort key of login passcodes.
const VerificationTypeOTP = "otp"
