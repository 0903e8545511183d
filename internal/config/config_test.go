package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTP_REQUIRED", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("OTP_DISPATCH_COOLDOWN_SECONDS", "")
	t.Setenv("TRUST_PROXY_HEADERS", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.True(t, cfg.OTP.Required)
	assert.Equal(t, "operator", cfg.OTP.PrincipalID)
	assert.Equal(t, 5*time.Minute, cfg.OTP.CodeTTL)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "otp_verifications", cfg.DynamoTables.OTPVerifications)
	assert.Equal(t, 30*time.Second, cfg.OTP.DispatchCooldown)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_OTPOverrides(t *testing.T) {
	t.Setenv("OTP_REQUIRED", "false")
	t.Setenv("OTP_PHONE_NUMBER", "+15550001111")
	t.Setenv("OTP_MAX_ATTEMPTS", "5")
	t.Setenv("OTP_DISPATCH_INTERVAL_SECONDS", "60")
	t.Setenv("OTP_DISPATCH_COOLDOWN_SECONDS", "0")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := Load()

	assert.False(t, cfg.OTP.Required)
	assert.Equal(t, "+15550001111", cfg.OTP.PhoneNumber)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.OTP.DispatchInterval)
	assert.Zero(t, cfg.OTP.DispatchCooldown)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("OTP_REQUIRED", "maybe")
	t.Setenv("OTP_MAX_ATTEMPTS", "three")

	cfg := Load()

	assert.True(t, cfg.OTP.Required)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
}

func TestLoadClient_TrimsTrailingSlash(t *testing.T) {
	t.Setenv("MODEM_CONSOLE_SERVER", "https://console.example.com/v1/")
	t.Setenv("MODEM_CONSOLE_TIMEOUT_SECONDS", "3")

	cfg := LoadClient()

	assert.Equal(t, "https://console.example.com/v1", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}
