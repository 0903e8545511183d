package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/modem-console/internal/application/otp"
	"github.com/modem-console/internal/config"
	"github.com/modem-console/internal/domain"
	"github.com/modem-console/internal/transport/http/handler"
	appmiddleware "github.com/modem-console/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// each dispatch sends an SMS, so the endpoint is throttled per client address
	dispatchRL := appmiddleware.NewRateLimiter(rate.Every(cfg.OTP.DispatchInterval), cfg.OTP.DispatchBurst)

	otpSvc := otp.NewService(otp.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		SMSSender:        deps.SMSSender,
		JWTProvider:      deps.JWTProvider,
		Principal:        domain.Principal{ID: cfg.OTP.PrincipalID, Phone: cfg.OTP.PhoneNumber},
		Required:         cfg.OTP.Required,
		CodeTTL:          cfg.OTP.CodeTTL,
		MaxAttempts:      cfg.OTP.MaxAttempts,
		DispatchCooldown: cfg.OTP.DispatchCooldown,
		Now:              deps.Now,
	})

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(otpSvc)
	modemH := handler.NewModemDisplayHandler()

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(dispatchRL.Limit).Post("/auth/otp", otpH.Dispatch)
		r.Get("/auth/otp/required", otpH.Required)
		r.Post("/auth/otp/verify", otpH.Verify)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Post("/modem/display", modemH.Classify)
		})
	})

	return r
}
