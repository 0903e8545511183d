package handler

import (
	"encoding/json"
	"net/http"

	"github.com/modem-console/internal/modemdisplay"
)

// ModemDisplayHandler turns polled telemetry into display directives for
// clients that do not embed the classifier themselves.
type ModemDisplayHandler struct{}

func NewModemDisplayHandler() *ModemDisplayHandler { return &ModemDisplayHandler{} }

// Classify handles POST /modem/display.
func (h *ModemDisplayHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var t modemdisplay.Telemetry
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, modemdisplay.Classify(t))
}
