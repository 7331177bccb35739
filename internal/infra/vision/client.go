package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 30
	minLabelConfidence     = 80.0
)

// Client talks to the vision forensics service: object/text detection on
// images, text extraction from documents (job-based), and asynchronous
// video label detection.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// PollInterval and MaxPollAttempts bound the text-extraction job
	// loop. Exceeding the bound is an extraction failure, never a hang.
	PollInterval    time.Duration
	MaxPollAttempts int
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:         baseURL,
		apiKey:          apiKey,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		PollInterval:    defaultPollInterval,
		MaxPollAttempts: defaultMaxPollAttempts,
	}
}

// DetectResponse is the detection result for one image.
type DetectResponse struct {
	DetectedObjects []string `json:"detected_objects"`
	DetectedText    []string `json:"detected_text"`
	Alerts          []string `json:"alerts"`
}

// ExtractResponse is the synchronous half of text extraction; large
// files come back as a job instead.
type ExtractResponse struct {
	Status string `json:"status"` // completed | processing | failed
	Text   string `json:"text,omitempty"`
	JobID  string `json:"job_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// VideoJobResponse is the state of one video detection job.
type VideoJobResponse struct {
	JobID  string  `json:"job_id"`
	Status string  `json:"status"`
	Labels []Label `json:"labels,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Label is one detected object or activity with its confidence.
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// DetectObjectsAndText runs content analysis on an image.
func (c *Client) DetectObjectsAndText(ctx context.Context, fileKey string) (domain.ForensicsResult, error) {
	var out DetectResponse
	if err := c.post(ctx, "/v1/detect", map[string]string{"file_key": fileKey}, &out); err != nil {
		return domain.ForensicsResult{}, err
	}
	return domain.ForensicsResult{
		DetectedObjects: out.DetectedObjects,
		DetectedText:    out.DetectedText,
		ForensicAlerts:  out.Alerts,
	}, nil
}

// Extract pulls verbatim text from a stored file. A small file returns
// synchronously; otherwise the service hands back a job which is polled
// with a fixed interval up to MaxPollAttempts.
func (c *Client) Extract(ctx context.Context, fileKey string) (string, error) {
	var out ExtractResponse
	if err := c.post(ctx, "/v1/extract-text", map[string]string{"file_key": fileKey}, &out); err != nil {
		return "", err
	}

	switch out.Status {
	case "completed":
		return out.Text, nil
	case "failed":
		return "", fmt.Errorf("text extraction failed: %s", out.Error)
	case "processing":
		return c.pollExtraction(ctx, out.JobID)
	default:
		return "", fmt.Errorf("unexpected extraction status %q", out.Status)
	}
}

func (c *Client) pollExtraction(ctx context.Context, jobID string) (string, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	attempts := c.MaxPollAttempts
	if attempts <= 0 {
		attempts = defaultMaxPollAttempts
	}

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		var out ExtractResponse
		if err := c.get(ctx, "/v1/jobs/"+jobID, &out); err != nil {
			return "", err
		}
		switch out.Status {
		case "completed":
			return out.Text, nil
		case "failed":
			return "", fmt.Errorf("text extraction job %s failed: %s", jobID, out.Error)
		}
	}
	return "", fmt.Errorf("text extraction job %s did not finish after %d polls", jobID, attempts)
}

// StartJob submits an asynchronous video detection job.
func (c *Client) StartJob(ctx context.Context, fileKey string) (string, error) {
	var out VideoJobResponse
	if err := c.post(ctx, "/v1/video-jobs", map[string]string{"file_key": fileKey}, &out); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", fmt.Errorf("video job submission returned no job id")
	}
	return out.JobID, nil
}

// JobResult fetches a finished video job and keeps only unique
// high-confidence labels, formatted for the evidence bundle.
func (c *Client) JobResult(ctx context.Context, jobID string) (domain.VideoResult, error) {
	var out VideoJobResponse
	if err := c.get(ctx, "/v1/video-jobs/"+jobID, &out); err != nil {
		return domain.VideoResult{}, err
	}
	if out.Status != "completed" {
		return domain.VideoResult{}, fmt.Errorf("video job %s is %s: %s", jobID, out.Status, out.Error)
	}

	seen := map[string]bool{}
	var labels []string
	for _, l := range out.Labels {
		if l.Confidence <= minLabelConfidence {
			continue
		}
		formatted := fmt.Sprintf("%s (%.2f%%)", l.Name, l.Confidence)
		if !seen[formatted] {
			seen[formatted] = true
			labels = append(labels, formatted)
		}
	}
	sort.Strings(labels)
	return domain.VideoResult{DetectedObjects: labels}, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("vision API %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, data)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
