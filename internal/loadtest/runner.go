package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/readmit/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete prediction load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting prediction load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("admissions", config.NumAdmissions),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Float64("updateRatio", config.UpdateRatio),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate observations
	observations, err := generateObservations(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("observation generation failed: %w", err)
	}

	// Step 3: Submit predictions concurrently
	if err := submitPredictions(ctx, config, observations, stats); err != nil {
		return fmt.Errorf("prediction submission failed: %w", err)
	}

	// Step 4: Submit ground-truth labels for a fraction of admissions
	if err := submitUpdates(ctx, config, observations, stats); err != nil {
		return fmt.Errorf("label update submission failed: %w", err)
	}

	// Step 5: Verify service behavior on repeats and unknowns
	if err := verifyResults(ctx, config, observations, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save observations to file
	if err := saveObservationsToFile(ctx, config, observations); err != nil {
		logger.Get().Warn(ctx, "failed to save observations to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveObservationsToFile saves the generated observations to a JSON file.
func saveObservationsToFile(ctx context.Context, config *Config, observations []Observation) error {
	if len(observations) == 0 {
		return fmt.Errorf("no observations to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "observations_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(observations); err != nil {
		return fmt.Errorf("failed to encode observations: %w", err)
	}

	logger.Get().Info(ctx, "observations saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, requestsPerSecond float64

	if stats.PredictsSubmitted > 0 {
		successRate = float64(stats.PredictsSuccessful) / float64(stats.PredictsSubmitted) * PercentageMultiplier
	}

	totalRequests := stats.PredictsSubmitted + stats.UpdatesSubmitted
	if stats.Duration > 0 {
		requestsPerSecond = float64(totalRequests) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("observationsGenerated", stats.ObservationsGenerated),
		logger.Int("predictsSubmitted", stats.PredictsSubmitted),
		logger.Int("predictsSuccessful", stats.PredictsSuccessful),
		logger.Int("predictsWithWarning", stats.PredictsWithWarning),
		logger.Int("predictsDuplicate", stats.PredictsDuplicate),
		logger.Int("predictsFailed", stats.PredictsFailed),
		logger.Int("predictedYes", stats.PredictedYes),
		logger.Int("predictedNo", stats.PredictedNo),
		logger.Int("updatesSubmitted", stats.UpdatesSubmitted),
		logger.Int("updatesSuccessful", stats.UpdatesSuccessful),
		logger.Int("updatesFailed", stats.UpdatesFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
