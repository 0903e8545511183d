package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/modem-console/internal/client/authflow"
	"github.com/modem-console/internal/client/httpclient"
	"github.com/modem-console/internal/config"
	"github.com/modem-console/internal/domain"
	jwtinfra "github.com/modem-console/internal/infrastructure/jwt"
	"github.com/modem-console/internal/modemdisplay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memVerifications struct {
	mu      sync.Mutex
	records map[string]domain.OTPVerification
}

func newMemVerifications() *memVerifications {
	return &memVerifications{records: map[string]domain.OTPVerification{}}
}

func (m *memVerifications) Put(_ context.Context, v *domain.OTPVerification, notBefore int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := v.PrincipalID + "#" + v.Type
	if prev, ok := m.records[key]; ok && prev.CreatedAt > notBefore {
		return domain.ErrTooManyRequests
	}
	m.records[key] = *v
	return nil
}

func (m *memVerifications) Get(_ context.Context, principalID, verType string) (*domain.OTPVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[principalID+"#"+verType]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (m *memVerifications) IncrementAttempts(_ context.Context, principalID, verType string, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := principalID + "#" + verType
	v, ok := m.records[key]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if v.Attempts >= limit {
		return 0, domain.ErrTooManyRequests
	}
	v.Attempts++
	m.records[key] = v
	return v.Attempts, nil
}

func (m *memVerifications) Delete(_ context.Context, principalID, verType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, principalID+"#"+verType)
	return nil
}

type capturingSMS struct {
	mu       sync.Mutex
	messages []string
}

func (c *capturingSMS) SendSMS(_ context.Context, _, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
	return nil
}

func (c *capturingSMS) sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (c *capturingSMS) lastCode(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.messages, "no sms sent")
	code := codePattern.FindString(c.messages[len(c.messages)-1])
	require.NotEmpty(t, code)
	return code
}

// --- harness ---

type harness struct {
	srv  *httptest.Server
	sms  *capturingSMS
	flow *authflow.Client
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"*"},
		OTP: config.OTP{
			Required:         true,
			PrincipalID:      "operator",
			PhoneNumber:      "+15550001111",
			CodeTTL:          5 * time.Minute,
			MaxAttempts:      3,
			DispatchInterval: time.Second,
			DispatchBurst:    5,
		},
	}
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sms := &capturingSMS{}
	router := NewRouter(cfg, &Deps{
		VerificationRepo: newMemVerifications(),
		SMSSender:        sms,
		JWTProvider:      jwtinfra.NewProviderFromKeys(key, &key.PublicKey, time.Hour),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &harness{
		srv:  srv,
		sms:  sms,
		flow: authflow.New(httpclient.New(srv.URL + "/v1")),
	}
}

// --- handshake ---

func TestHandshake_DispatchThenVerify(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	req, err := h.flow.QueryOTPRequirement(ctx)
	require.NoError(t, err)
	require.True(t, req.Required)

	require.NoError(t, h.flow.RequestOTPDispatch(ctx))

	res, err := h.flow.VerifyOTP(ctx, domain.OTPVerifyPayload{Code: h.sms.lastCode(t)})
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.Session)
	assert.Equal(t, "operator", res.Session.PrincipalID)

	var display modemdisplay.Display
	authed := httpclient.New(h.srv.URL+"/v1", httpclient.WithBearerToken(res.Token))
	err = authed.Request(ctx, "modem/display", httpclient.Options{
		Method: http.MethodPost,
		Body:   modemdisplay.Telemetry{SignalQuality: 55, RegistrationState: "Emergency Only", RegionCode: "FR"},
	}, &display)
	require.NoError(t, err)
	assert.Equal(t, modemdisplay.IconSignalMedium, display.SignalIcon)
	assert.Equal(t, modemdisplay.ToneBad, display.EffectiveSignalTone())
	assert.Equal(t, "fi fi-fr", display.FlagClass)
}

func TestHandshake_WrongCodeIsRejectionNotError(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	require.NoError(t, h.flow.RequestOTPDispatch(ctx))
	wrong := "123456"
	if h.sms.lastCode(t) == wrong {
		wrong = "654321"
	}

	res, err := h.flow.VerifyOTP(ctx, domain.OTPVerifyPayload{Code: wrong})

	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, domain.OTPReasonInvalidCode, res.Reason)
	assert.Empty(t, res.Token)
}

func TestHandshake_VerifyWithoutDispatch(t *testing.T) {
	h := newHarness(t, testConfig())

	res, err := h.flow.VerifyOTP(context.Background(), domain.OTPVerifyPayload{Code: "123456"})

	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, domain.OTPReasonNotRequested, res.Reason)
}

func TestHandshake_RedispatchInvalidatesPreviousCode(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	require.NoError(t, h.flow.RequestOTPDispatch(ctx))
	first := h.sms.lastCode(t)
	require.NoError(t, h.flow.RequestOTPDispatch(ctx))
	second := h.sms.lastCode(t)
	if first == second {
		t.Skip("both dispatches drew the same code")
	}

	res, err := h.flow.VerifyOTP(ctx, domain.OTPVerifyPayload{Code: first})
	require.NoError(t, err)
	assert.False(t, res.Verified)

	res, err = h.flow.VerifyOTP(ctx, domain.OTPVerifyPayload{Code: second})
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestHandshake_NotRequired(t *testing.T) {
	cfg := testConfig()
	cfg.OTP.Required = false
	h := newHarness(t, cfg)
	ctx := context.Background()

	req, err := h.flow.QueryOTPRequirement(ctx)
	require.NoError(t, err)
	assert.False(t, req.Required)

	res, err := h.flow.VerifyOTP(ctx, domain.OTPVerifyPayload{})
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestHandshake_DispatchRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.OTP.DispatchInterval = time.Hour
	cfg.OTP.DispatchBurst = 1
	h := newHarness(t, cfg)
	ctx := context.Background()

	require.NoError(t, h.flow.RequestOTPDispatch(ctx))
	err := h.flow.RequestOTPDispatch(ctx)

	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.False(t, errors.Is(err, httpclient.ErrTransport))
}

func TestHandshake_DispatchCooldown(t *testing.T) {
	cfg := testConfig()
	cfg.OTP.DispatchCooldown = time.Hour
	h := newHarness(t, cfg)
	ctx := context.Background()

	require.NoError(t, h.flow.RequestOTPDispatch(ctx))
	err := h.flow.RequestOTPDispatch(ctx)

	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, 1, h.sms.sent())
}

func TestHandshake_EmptyCodeIsBadRequest(t *testing.T) {
	h := newHarness(t, testConfig())

	_, err := h.flow.VerifyOTP(context.Background(), domain.OTPVerifyPayload{})

	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func postDispatch(t *testing.T, srv *httptest.Server, forwardedFor string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/auth/otp", nil)
	require.NoError(t, err)
	req.Header.Set("X-Forwarded-For", forwardedFor)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestDispatchLimit_IgnoresForwardedForByDefault(t *testing.T) {
	cfg := testConfig()
	cfg.OTP.DispatchInterval = time.Hour
	cfg.OTP.DispatchBurst = 1
	h := newHarness(t, cfg)

	assert.Equal(t, http.StatusOK, postDispatch(t, h.srv, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, postDispatch(t, h.srv, "10.0.0.2"))
}

func TestDispatchLimit_TrustedProxyHeaders(t *testing.T) {
	cfg := testConfig()
	cfg.TrustProxyHeaders = true
	cfg.OTP.DispatchInterval = time.Hour
	cfg.OTP.DispatchBurst = 1
	h := newHarness(t, cfg)

	assert.Equal(t, http.StatusOK, postDispatch(t, h.srv, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, postDispatch(t, h.srv, "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, postDispatch(t, h.srv, "10.0.0.1"))
}

func TestHandshake_ServerDown(t *testing.T) {
	h := newHarness(t, testConfig())
	h.srv.Close()

	_, err := h.flow.VerifyOTP(context.Background(), domain.OTPVerifyPayload{Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, httpclient.ErrTransport))
}

func TestModemDisplay_RequiresToken(t *testing.T) {
	h := newHarness(t, testConfig())

	err := httpclient.New(h.srv.URL+"/v1").Request(context.Background(), "modem/display", httpclient.Options{
		Method: http.MethodPost,
		Body:   modemdisplay.Telemetry{},
	}, nil)

	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	h := newHarness(t, testConfig())

	var out struct {
		Message string `json:"message"`
	}
	err := httpclient.New(h.srv.URL+"/v1").Request(context.Background(), "health-check/ping", httpclient.Options{}, &out)

	require.NoError(t, err)
	assert.Equal(t, "pong", out.Message)
}
