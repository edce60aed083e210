package model

import "time"

// Label strings used on the wire.
const (
	LabelYes = "Yes"
	LabelNo  = "No"
)

// LabelString converts a boolean readmission label to its wire form.
func LabelString(readmitted bool) string {
	if readmitted {
		return LabelYes
	}
	return LabelNo
}

// PredictionRecord correlates an admission id with the model's output and,
// once the update path has run, the ground-truth label. Keyed by the
// caller-supplied admission id; a second prediction for the same id is a
// conflict, never an overwrite.
type PredictionRecord struct {
	AdmissionID int64
	Observation string // raw observation JSON as received
	Predicted   bool
	Proba       float64
	Label       *bool // ground truth; nil until the update endpoint closes the loop
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
