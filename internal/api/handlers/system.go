package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nepseutils/stock-backoffice/internal/api/request"
	"github.com/nepseutils/stock-backoffice/internal/api/response"
	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/service"
)

// SystemHandler handles HTTP requests for system endpoints.
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler with the provided service dependency.
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// Health handles GET requests for the health check endpoint.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with {"status":"ok"} when the database responds
// Error: 503 Service Unavailable otherwise
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if err := h.systemService.CheckHealth(); err != nil {
		response.RespondError(w, http.StatusServiceUnavailable, "database unavailable", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version handles GET requests for the version endpoint.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with {"version":"..."}
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, map[string]string{
		"version": h.systemService.CheckVersion(),
	})
}

// SetVendorToken handles PUT requests to store the data-vendor API token.
// The token is encrypted at rest and never returned by the API.
//
// Endpoint: PUT /api/system/vendor-token
// Request Body: SetVendorTokenRequest
// Response: 204 No Content
// Error: 400 Bad Request if the body is invalid or the token empty
// Error: 409 Conflict if no encryption key is configured
func (h *SystemHandler) SetVendorToken(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SetVendorTokenRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Token == "" {
		response.RespondError(w, http.StatusBadRequest, "token is required", "")
		return
	}

	if err := h.systemService.SetVendorToken(req.Token); err != nil {
		if errors.Is(err, apperrors.ErrEncryptionKeyNotSet) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrEncryptionKeyNotSet.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to store vendor token", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// VendorTokenInfo handles GET requests for vendor-token metadata. Reports
// whether a token is stored and when it was last rotated, never the token.
//
// Endpoint: GET /api/system/vendor-token
// Response: 200 OK with {"configured":bool,"updatedAt":...}
func (h *SystemHandler) VendorTokenInfo(w http.ResponseWriter, _ *http.Request) {
	configured, updatedAt, err := h.systemService.VendorTokenInfo()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to read vendor token info", err.Error())
		return
	}

	payload := struct {
		Configured bool       `json:"configured"`
		UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	}{Configured: configured}

	if configured {
		payload.UpdatedAt = &updatedAt
	}

	response.RespondJSON(w, http.StatusOK, payload)
}
