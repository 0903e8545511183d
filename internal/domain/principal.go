package domain

// Principal is the operator account the console authenticates.
// Its OTP channel is the phone number codes are delivered to.
type Principal struct {
	ID    string
	Phone string
}
