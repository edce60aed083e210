// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	service "github.com/okian/readmit/internal/app"
	"github.com/okian/readmit/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Predict validates, scores, and persists one admission observation.
	Predict(ctx context.Context, obs model.Observation) (service.PredictResult, error)

	// Update records a ground-truth readmission label.
	Update(ctx context.Context, obs model.Observation) (service.UpdateResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	updateHandler  *UpdateHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
		updateHandler:  NewUpdateHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/update", MetricsMiddleware(s.updateHandler.HandleUpdate, "update"))
}

// predictResponse mirrors the wire shape for a successful prediction.
type predictResponse struct {
	Readmitted string `json:"readmitted"`
	Warning    string `json:"warning,omitempty"`
}

// predictErrorResponse mirrors the wire shape for a refused prediction. The
// admission ID is null when the payload never carried a usable one.
type predictErrorResponse struct {
	AdmissionID *int64 `json:"admission_id"`
	Error       string `json:"error"`
}

// updateResponse mirrors the wire shape for a successful label update.
type updateResponse struct {
	AdmissionID         int64  `json:"admission_id"`
	ActualReadmitted    string `json:"actual_readmitted"`
	PredictedReadmitted string `json:"predicted_readmitted"`
}

// updateErrorResponse mirrors the wire shape for a refused label update.
type updateErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// admissionIDFrom pulls an admission ID out of a (possibly partially
// normalized) observation. It tolerates both the canonical int64 and the raw
// json.Number, so rejected payloads still echo their ID when one was given.
func admissionIDFrom(obs model.Observation) *int64 {
	if id, ok := obs.AdmissionID(); ok {
		return &id
	}
	if n, ok := obs["admission_id"].(json.Number); ok {
		if id, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return &id
		}
	}
	return nil
}
