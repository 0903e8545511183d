// Package authflow drives the client side of the OTP login handshake.
//
// The Client keeps no state between calls. Each method issues exactly one
// request through the Requester; handshake ordering, retries and rate
// limiting are left to the caller and the server.
package authflow

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modem-console/internal/client/httpclient"
	"github.com/modem-console/internal/domain"
)

const (
	pathOTP         = "auth/otp"
	pathOTPRequired = "auth/otp/required"
	pathOTPVerify   = "auth/otp/verify"
)

// Requester is the transport the client is built on.
// *httpclient.Client satisfies it.
type Requester interface {
	Request(ctx context.Context, path string, opts httpclient.Options, out any) error
}

type Client struct {
	r Requester
}

func New(r Requester) *Client {
	return &Client{r: r}
}

// RequestOTPDispatch asks the server to send a fresh code to the principal's
// registered channel. Every call triggers a new dispatch.
func (c *Client) RequestOTPDispatch(ctx context.Context) error {
	if err := c.r.Request(ctx, pathOTP, httpclient.Options{Method: http.MethodPost}, nil); err != nil {
		return fmt.Errorf("request otp dispatch: %w", err)
	}
	return nil
}

// QueryOTPRequirement reports whether the current login must pass an OTP check.
func (c *Client) QueryOTPRequirement(ctx context.Context) (domain.OTPRequirement, error) {
	var out domain.OTPRequirement
	if err := c.r.Request(ctx, pathOTPRequired, httpclient.Options{Method: http.MethodGet}, &out); err != nil {
		return domain.OTPRequirement{}, fmt.Errorf("query otp requirement: %w", err)
	}
	return out, nil
}

// VerifyOTP submits payload unchanged and returns the server's verdict.
// A rejected code comes back as Verified=false with a nil error; a non-nil
// error means the code could not be verified at all.
func (c *Client) VerifyOTP(ctx context.Context, payload domain.OTPVerifyPayload) (domain.OTPVerifyResult, error) {
	var out domain.OTPVerifyResult
	opts := httpclient.Options{Method: http.MethodPost, Body: payload}
	if err := c.r.Request(ctx, pathOTPVerify, opts, &out); err != nil {
		return domain.OTPVerifyResult{}, fmt.Errorf("verify otp: %w", err)
	}
	return out, nil
}
