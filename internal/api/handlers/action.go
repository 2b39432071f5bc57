package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nepseutils/stock-backoffice/internal/api/request"
	"github.com/nepseutils/stock-backoffice/internal/api/response"
	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/service"
	"github.com/nepseutils/stock-backoffice/internal/validation"
)

// ActionHandler handles HTTP requests for corporate-action endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the actionService.
type ActionHandler struct {
	actionService *service.ActionService
}

// NewActionHandler creates a new ActionHandler with the provided service dependency.
func NewActionHandler(actionService *service.ActionService) *ActionHandler {
	return &ActionHandler{
		actionService: actionService,
	}
}

// GetAllActions handles GET requests to retrieve corporate actions,
// optionally filtered by symbol, in book-close order.
//
// Endpoint: GET /api/action?symbol=
// Response: 200 OK with array of CorporateAction
// Error: 500 Internal Server Error if retrieval fails
func (h *ActionHandler) GetAllActions(w http.ResponseWriter, r *http.Request) {

	actions, err := h.actionService.GetAllActions(r.URL.Query().Get("symbol"))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveActions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, actions)
}

// GetAction handles GET requests to retrieve one corporate action by ID.
//
// Endpoint: GET /api/action/{uuid}
// Response: 200 OK with CorporateAction
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the action does not exist
func (h *ActionHandler) GetAction(w http.ResponseWriter, r *http.Request) {
	actionID := chi.URLParam(r, "uuid")

	action, err := h.actionService.GetAction(actionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrActionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrActionNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveActions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, action)
}

// CreateAction handles POST requests to declare a corporate action. When the
// book-close date is not in the future, the security's adjusted series is
// rebuilt synchronously; the response distinguishes "saved but recalculation
// failed" (201 with recalcFailed=true) from "not saved" (error status).
//
// Endpoint: POST /api/action
// Request Body: CreateActionRequest (symbol, kind, rate, bookClose, and optionally parValue)
// Response: 201 Created with ActionWriteResult
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if the symbol is not listed
// Error: 500 Internal Server Error if creation fails
func (h *ActionHandler) CreateAction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateActionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateAction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.actionService.CreateAction(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrCompanyNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to create corporate action", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

// UpdateAction handles PUT requests to modify a declared corporate action.
// Affected securities are rebuilt synchronously under the same semantics as
// CreateAction.
//
// Endpoint: PUT /api/action/{uuid}
// Request Body: UpdateActionRequest (all fields optional)
// Response: 200 OK with ActionWriteResult
// Error: 400 Bad Request if the ID is invalid (validated by middleware) or validation fails
// Error: 404 Not Found if the action (or a new symbol) does not exist
// Error: 500 Internal Server Error if the update fails
func (h *ActionHandler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	actionID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateActionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateAction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.actionService.UpdateAction(r.Context(), actionID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrActionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrActionNotFound.Error(), "")
			return
		}
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrCompanyNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to update corporate action", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// DeleteAction handles DELETE requests to remove a corporate action. The
// security's series is rebuilt if the action had already taken effect.
//
// Endpoint: DELETE /api/action/{uuid}
// Response: 200 OK with ActionWriteResult (no body row; reports rebuild outcome)
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the action does not exist
// Error: 500 Internal Server Error if the delete fails
func (h *ActionHandler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	actionID := chi.URLParam(r, "uuid")

	result, err := h.actionService.DeleteAction(r.Context(), actionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrActionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrActionNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete corporate action", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// ImportActions handles POST requests to bulk-import corporate actions
// (parsed upstream from an upload). Each touched security is rebuilt once
// after all rows are saved.
//
// Endpoint: POST /api/action/import
// Request Body: ImportActionsRequest
// Response: 200 OK with ActionImportResult
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if a referenced symbol is not listed
// Error: 500 Internal Server Error if the import fails
func (h *ActionHandler) ImportActions(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ImportActionsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateImportActions(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.actionService.ImportActions(r.Context(), req.Actions)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrCompanyNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to import corporate actions", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
