package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration of the API server loaded from environment variables.
type Config struct {
	AppPort           string
	AppEnv            string
	AWSRegion         string
	AWSEndpointURL    string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID    string
	AWSSecretKey      string
	DynamoTables      DynamoTables
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	SNSRegion         string
	AllowedOrigins    []string // CORS allowed origins
	TrustProxyHeaders bool     // take the client address from X-Forwarded-For / X-Real-IP
	OTP               OTP
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	OTPVerifications string
}

// OTP configures the login passcode handshake.
type OTP struct {
	// Required defaults to true when OTP_REQUIRED is unset.
	Required         bool
	PrincipalID      string
	PhoneNumber      string
	CodeTTL          time.Duration
	MaxAttempts      int
	DispatchInterval time.Duration
	DispatchBurst    int
	// DispatchCooldown is the minimum gap between two codes for the principal,
	// whichever client asks.
	DispatchCooldown time.Duration
}

// ClientConfig holds the settings of command-line clients talking to the API.
type ClientConfig struct {
	ServerURL string
	Timeout   time.Duration
}

// Load reads all server configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			OTPVerifications: getEnv("DYNAMO_TABLE_OTP_VERIFICATIONS", "otp_verifications"),
		},
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		OTP: OTP{
			Required:         getEnvBool("OTP_REQUIRED", true),
			PrincipalID:      getEnv("OTP_PRINCIPAL_ID", "operator"),
			PhoneNumber:      getEnv("OTP_PHONE_NUMBER", ""),
			CodeTTL:          time.Duration(getEnvInt("OTP_CODE_TTL_MINUTES", 5)) * time.Minute,
			MaxAttempts:      getEnvInt("OTP_MAX_ATTEMPTS", 3),
			DispatchInterval: time.Duration(getEnvInt("OTP_DISPATCH_INTERVAL_SECONDS", 30)) * time.Second,
			DispatchBurst:    getEnvInt("OTP_DISPATCH_BURST", 3),
			DispatchCooldown: time.Duration(getEnvInt("OTP_DISPATCH_COOLDOWN_SECONDS", 30)) * time.Second,
		},
	}
}

// LoadClient reads client configuration from environment variables.
func LoadClient() *ClientConfig {
	return &ClientConfig{
		ServerURL: strings.TrimRight(getEnv("MODEM_CONSOLE_SERVER", "http://localhost:3000/v1"), "/"),
		Timeout:   time.Duration(getEnvInt("MODEM_CONSOLE_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}

// IsProduction reports whether the server runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
