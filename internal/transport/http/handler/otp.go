package handler

import (
	"encoding/json"
	"net/http"

	"github.com/modem-console/internal/application/otp"
	"github.com/modem-console/internal/domain"
)

// OTPHandler serves the OTP login handshake endpoints.
type OTPHandler struct {
	svc otp.Service
}

func NewOTPHandler(svc otp.Service) *OTPHandler {
	return &OTPHandler{svc: svc}
}

// Dispatch handles POST /auth/otp.
func (h *OTPHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Dispatch(r.Context()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "otp sent"})
}

// Required handles GET /auth/otp/required.
func (h *OTPHandler) Required(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Requirement(r.Context()))
}

// Verify handles POST /auth/otp/verify. A wrong code is a 200 with
// verified=false; only malformed requests (400) and server failures are errors.
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.OTPVerifyPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Verify(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
