package api

import (
	"errors"
	"net/http"

	service "github.com/okian/readmit/internal/app"
	"github.com/okian/readmit/internal/domain/validate"
)

// UpdateHandler handles ground-truth label updates.
type UpdateHandler struct {
	deps Dependencies
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(deps Dependencies) *UpdateHandler {
	return &UpdateHandler{deps: deps}
}

// HandleUpdate handles POST /update requests.
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	obs, err := decodeObservation(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, updateErrorResponse{
			Error: "request body must be a JSON object",
		})
		return
	}

	result, err := h.deps.Update(r.Context(), obs)
	if err != nil {
		var fieldErr *validate.FieldError
		var notFound *service.NotFoundError
		switch {
		case errors.As(err, &fieldErr):
			writeJSON(w, http.StatusBadRequest, updateErrorResponse{Error: err.Error()})
		case errors.As(err, &notFound):
			writeJSON(w, http.StatusNotFound, updateErrorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, updateErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{
		AdmissionID:         result.AdmissionID,
		ActualReadmitted:    result.ActualLabel,
		PredictedReadmitted: result.PredictedLabel,
	})
}
