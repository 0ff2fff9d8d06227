package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
)

// LicenseHandler exposes license configuration and standalone validation
type LicenseHandler struct {
	license interfaces.LicenseValidator
	logger  arbor.ILogger
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(license interfaces.LicenseValidator, logger arbor.ILogger) *LicenseHandler {
	return &LicenseHandler{
		license: license,
		logger:  logger,
	}
}

// ConfigHandler handles GET /api/license/config. Clients use it to
// decide whether to show the license key field.
func (h *LicenseHandler) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"required":     h.license.Enabled(),
		"checkout_url": h.license.CheckoutURL(),
	})
}

// ValidateHandler handles POST /api/license/validate, letting clients
// check a key before submitting a scrape.
func (h *LicenseHandler) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if !h.license.Enabled() {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"valid": true})
		return
	}

	var payload struct {
		LicenseKey string `json:"license_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	valid, reason := h.license.Validate(r.Context(), payload.LicenseKey)
	resp := map[string]interface{}{"valid": valid}
	if !valid {
		resp["reason"] = reason
		resp["checkout_url"] = h.license.CheckoutURL()
	}
	WriteJSON(w, http.StatusOK, resp)
}
