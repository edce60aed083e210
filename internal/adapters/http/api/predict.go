package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/readmit/internal/app"
	"github.com/okian/readmit/internal/domain/model"
	"github.com/okian/readmit/internal/domain/validate"
)

// PredictHandler handles admission scoring requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	obs, err := decodeObservation(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, predictErrorResponse{
			AdmissionID: nil,
			Error:       "request body must be a JSON object",
		})
		return
	}

	result, err := h.deps.Predict(r.Context(), obs)
	if err != nil {
		h.writePredictError(w, obs, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Readmitted: result.Label,
		Warning:    result.Warning,
	})
}

func (h *PredictHandler) writePredictError(w http.ResponseWriter, obs model.Observation, err error) {
	resp := predictErrorResponse{
		AdmissionID: admissionIDFrom(obs),
		Error:       err.Error(),
	}

	var fieldErr *validate.FieldError
	var dupErr *service.DuplicateError
	switch {
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &dupErr):
		writeJSON(w, http.StatusConflict, resp)
	default:
		resp.Error = "internal error"
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// decodeObservation reads one JSON object, keeping numbers as json.Number so
// the coercion engine can distinguish integral from fractional values.
func decodeObservation(r *http.Request) (model.Observation, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var obs model.Observation
	if err := dec.Decode(&obs); err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, errors.New("empty payload")
	}
	return obs, nil
}
