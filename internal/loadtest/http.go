package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// predictOutcome classifies a single predict attempt.
type predictOutcome struct {
	result  string // "success", "duplicate", or "failed"
	label   string // "Yes" or "No" on success
	warning bool
}

// submitPredictions submits observations concurrently using a worker pool.
func submitPredictions(ctx context.Context, config *Config, observations []Observation, stats *Stats) error {
	log.Printf("Submitting %d observations with %d workers...", len(observations), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"

	var (
		successful int64
		warned     int64
		duplicate  int64
		failed     int64
		submitted  int64
		yesCount   int64
		noCount    int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	obsChan := make(chan Observation, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for obs := range obsChan {
				select {
				case <-ctx.Done():
					return
				default:
					outcome := submitSinglePrediction(ctx, client, url, obs)

					atomic.AddInt64(&submitted, 1)
					switch outcome.result {
					case "success":
						atomic.AddInt64(&successful, 1)
						if outcome.warning {
							atomic.AddInt64(&warned, 1)
						}
						if outcome.label == "Yes" {
							atomic.AddInt64(&yesCount, 1)
						} else {
							atomic.AddInt64(&noCount, 1)
						}
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("Progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
								total, len(observations), succ, dup, fail)
						} else {
							fmt.Printf("\rSubmitted: %d/%d (success: %d, duplicate: %d, failed: %d)",
								total, len(observations), succ, dup, fail)
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(obsChan)
		for _, obs := range observations {
			select {
			case <-ctx.Done():
				return
			case obsChan <- obs:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	stats.PredictsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.PredictsSuccessful = int(atomic.LoadInt64(&successful))
	stats.PredictsWithWarning = int(atomic.LoadInt64(&warned))
	stats.PredictsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.PredictsFailed = int(atomic.LoadInt64(&failed))
	stats.PredictedYes = int(atomic.LoadInt64(&yesCount))
	stats.PredictedNo = int(atomic.LoadInt64(&noCount))

	log.Printf(`Prediction submission completed:
   Successful: %d
   Duplicate: %d
   Failed: %d
`, stats.PredictsSuccessful, stats.PredictsDuplicate, stats.PredictsFailed)

	return nil
}

// submitSinglePrediction submits one observation and classifies the outcome.
func submitSinglePrediction(ctx context.Context, client *HTTPClient, url string, obs Observation) predictOutcome {
	resp, err := client.Post(ctx, url, obs)
	if err != nil {
		return predictOutcome{result: "failed"}
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return predictOutcome{result: "failed"}
	}

	switch resp.StatusCode {
	case StatusOK:
		var pr PredictResponse
		if err := json.Unmarshal(body, &pr); err != nil {
			return predictOutcome{result: "failed"}
		}
		return predictOutcome{result: "success", label: pr.Readmitted, warning: pr.Warning != ""}
	case StatusConflict:
		return predictOutcome{result: "duplicate"}
	default:
		return predictOutcome{result: "failed"}
	}
}

// submitUpdates posts ground-truth labels for a fraction of the scored
// admissions, chosen from the front of the slice.
func submitUpdates(ctx context.Context, config *Config, observations []Observation, stats *Stats) error {
	count := int(float64(len(observations)) * config.UpdateRatio)
	if count == 0 {
		return nil
	}

	log.Printf("Submitting %d label updates with %d workers...", count, config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/update"

	var (
		submitted  int64
		successful int64
		failed     int64
	)

	idChan := make(chan int64, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for id := range idChan {
				select {
				case <-ctx.Done():
					return
				default:
					payload := map[string]any{
						"admission_id": id,
						"readmitted":   pick(yesNo),
					}

					atomic.AddInt64(&submitted, 1)
					resp, err := client.Post(ctx, url, payload)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						continue
					}
					_, _ = readResponseBody(resp)

					if resp.StatusCode == StatusOK {
						atomic.AddInt64(&successful, 1)
					} else {
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(idChan)
		for _, obs := range observations[:count] {
			select {
			case <-ctx.Done():
				return
			case idChan <- admissionIDOf(obs):
			}
		}
	}()

	wg.Wait()

	stats.UpdatesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.UpdatesSuccessful = int(atomic.LoadInt64(&successful))
	stats.UpdatesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Label update submission completed:
   Successful: %d
   Failed: %d
`, stats.UpdatesSuccessful, stats.UpdatesFailed)

	return nil
}
