package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// verificationSampleSize is the number of already-scored admissions to
// resubmit when checking duplicate refusal.
const verificationSampleSize = 10

// verifyResults spot-checks service behavior after the bulk run: repeated
// admissions must be refused as duplicates, and unknown admissions must
// answer not-found on update.
func verifyResults(ctx context.Context, config *Config, observations []Observation, stats *Stats) error {
	log.Println("Verifying results...")

	if len(observations) == 0 {
		return fmt.Errorf("no observations to verify")
	}

	client := newHTTPClient(config.Timeout)

	if err := verifyDuplicateRefusal(ctx, config, client, observations); err != nil {
		log.Printf("Duplicate refusal warning: %v", err)
	} else {
		log.Println("Duplicate refusal verified")
	}

	if err := verifyUnknownUpdate(ctx, config, client); err != nil {
		log.Printf("Unknown-admission warning: %v", err)
	} else {
		log.Println("Unknown-admission handling verified")
	}

	displayOutcomeBreakdown(stats, config.Verbose)

	log.Println("Result verification completed")
	return nil
}

// verifyDuplicateRefusal resubmits a sample of scored observations and
// expects every one to be refused with a conflict.
func verifyDuplicateRefusal(ctx context.Context, config *Config, client *HTTPClient, observations []Observation) error {
	sample := verificationSampleSize
	if len(observations) < sample {
		sample = len(observations)
	}

	url := config.BaseURL + "/predict"
	for _, obs := range observations[:sample] {
		resp, err := client.Post(ctx, url, obs)
		if err != nil {
			return fmt.Errorf("resubmission of admission %s failed: %w", formatID(admissionIDOf(obs)), err)
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read resubmission response: %w", err)
		}

		if resp.StatusCode != StatusConflict {
			return fmt.Errorf("resubmission of admission %s answered %d, expected %d",
				formatID(admissionIDOf(obs)), resp.StatusCode, StatusConflict)
		}

		var per PredictErrorResponse
		if err := json.Unmarshal(body, &per); err != nil {
			return fmt.Errorf("invalid duplicate response body: %w", err)
		}
		if per.AdmissionID == nil || *per.AdmissionID != admissionIDOf(obs) {
			return fmt.Errorf("duplicate response did not echo admission %s", formatID(admissionIDOf(obs)))
		}
	}

	return nil
}

// verifyUnknownUpdate posts a label for an admission that was never scored
// and expects a not-found answer.
func verifyUnknownUpdate(ctx context.Context, config *Config, client *HTTPClient) error {
	url := config.BaseURL + "/update"
	payload := map[string]any{
		"admission_id": int64(-1),
		"readmitted":   "yes",
	}

	resp, err := client.Post(ctx, url, payload)
	if err != nil {
		return fmt.Errorf("unknown-admission update failed: %w", err)
	}
	_, _ = readResponseBody(resp)

	if resp.StatusCode != StatusNotFound {
		return fmt.Errorf("unknown-admission update answered %d, expected %d", resp.StatusCode, StatusNotFound)
	}

	return nil
}

// displayOutcomeBreakdown shows the prediction outcome distribution.
func displayOutcomeBreakdown(stats *Stats, verbose bool) {
	log.Printf(`Prediction outcomes:
   Yes: %d
   No: %d
   With warning: %d
`, stats.PredictedYes, stats.PredictedNo, stats.PredictsWithWarning)

	if verbose && stats.PredictsSuccessful > 0 {
		yesRate := float64(stats.PredictedYes) / float64(stats.PredictsSuccessful) * PercentageMultiplier
		log.Printf("Positive rate: %.1f%%", yesRate)
	}
}
