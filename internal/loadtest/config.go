package loadtest

import "time"

// Config holds configuration for the prediction load test.
type Config struct {
	BaseURL       string        // Base URL of the service
	NumAdmissions int           // Number of admissions to generate
	UpdateRatio   float64       // Fraction of admissions that receive a label update
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Output file for generated observations
	LogFile       string        // Log file for test output
	Verbose       bool          // Enable verbose logging
}

// Observation is the raw predict payload. Keys follow the service wire
// names verbatim, including the mixed-case ones.
type Observation map[string]any

// PredictResponse is the predict success body.
type PredictResponse struct {
	Readmitted string `json:"readmitted"`
	Warning    string `json:"warning,omitempty"`
}

// PredictErrorResponse is the predict failure body.
type PredictErrorResponse struct {
	AdmissionID *int64 `json:"admission_id"`
	Error       string `json:"error"`
}

// UpdateResponse is the update success body.
type UpdateResponse struct {
	AdmissionID         int64  `json:"admission_id"`
	ActualReadmitted    string `json:"actual_readmitted"`
	PredictedReadmitted string `json:"predicted_readmitted"`
}

// Stats holds load test statistics.
type Stats struct {
	ObservationsGenerated int
	PredictsSubmitted     int
	PredictsSuccessful    int
	PredictsWithWarning   int
	PredictsDuplicate     int
	PredictsFailed        int
	UpdatesSubmitted      int
	UpdatesSuccessful     int
	UpdatesFailed         int
	PredictedYes          int
	PredictedNo           int
	StartTime             time.Time
	EndTime               time.Time
	Duration              time.Duration
}
