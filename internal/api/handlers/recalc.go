package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nepseutils/stock-backoffice/internal/api/response"
	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/service"
)

// RecalcHandler handles HTTP requests for batch-recalculation job endpoints.
type RecalcHandler struct {
	recalcService *service.RecalcService
}

// NewRecalcHandler creates a new RecalcHandler with the provided service dependency.
func NewRecalcHandler(recalcService *service.RecalcService) *RecalcHandler {
	return &RecalcHandler{
		recalcService: recalcService,
	}
}

// StartRecalculation handles POST requests to launch a full-universe
// recalculation job. The caller gets a job ID immediately and polls GetJob
// for progress; the job itself runs in the background.
//
// Endpoint: POST /api/recalculate
// Response: 202 Accepted with {"jobId":"..."}
// Error: 500 Internal Server Error if the job cannot be registered
func (h *RecalcHandler) StartRecalculation(w http.ResponseWriter, _ *http.Request) {
	jobID, err := h.recalcService.Start()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to start recalculation", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

// GetJob handles GET requests for a recalculation job's status snapshot.
//
// Endpoint: GET /api/recalculate/{uuid}
// Response: 200 OK with RecalcJob
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if no such job exists (or it was cleared)
func (h *RecalcHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "uuid")

	job, err := h.recalcService.Get(jobID)
	if err != nil {
		response.RespondError(w, http.StatusNotFound, apperrors.ErrJobNotFound.Error(), "")
		return
	}

	response.RespondJSON(w, http.StatusOK, job)
}

// ClearJob handles DELETE requests to remove a finished job's status record.
// A running job is never stopped: clearing it is rejected.
//
// Endpoint: DELETE /api/recalculate/{uuid}
// Response: 204 No Content
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if no such job exists
// Error: 409 Conflict if the job is still running
func (h *RecalcHandler) ClearJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "uuid")

	if err := h.recalcService.Clear(jobID); err != nil {
		if errors.Is(err, apperrors.ErrJobStillRunning) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrJobStillRunning.Error(), "")
			return
		}
		response.RespondError(w, http.StatusNotFound, apperrors.ErrJobNotFound.Error(), "")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
