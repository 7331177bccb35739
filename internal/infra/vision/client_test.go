package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(srv.URL, "test-key")
	c.PollInterval = time.Millisecond
	c.MaxPollAttempts = 3
	return c, srv
}

func TestDetectObjectsAndText(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/detect", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claims/c1/a.jpg", body["file_key"])

		json.NewEncoder(w).Encode(DetectResponse{
			DetectedObjects: []string{"Car", "License Plate"},
			DetectedText:    []string{"B 1234 XYZ"},
			Alerts:          []string{"Possible screenshot"},
		})
	}))
	defer srv.Close()

	res, err := c.DetectObjectsAndText(context.Background(), "claims/c1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"Car", "License Plate"}, res.DetectedObjects)
	assert.Equal(t, []string{"B 1234 XYZ"}, res.DetectedText)
	assert.Equal(t, []string{"Possible screenshot"}, res.ForensicAlerts)
}

func TestExtract_Synchronous(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ExtractResponse{Status: "completed", Text: "police report"})
	}))
	defer srv.Close()

	text, err := c.Extract(context.Background(), "claims/c1/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "police report", text)
}

func TestExtract_Failed(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ExtractResponse{Status: "failed", Error: "unsupported format"})
	}))
	defer srv.Close()

	_, err := c.Extract(context.Background(), "claims/c1/a.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestExtract_PollsJobToCompletion(t *testing.T) {
	var polls atomic.Int32
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/extract-text":
			json.NewEncoder(w).Encode(ExtractResponse{Status: "processing", JobID: "job-7"})
		case "/v1/jobs/job-7":
			if polls.Add(1) < 2 {
				json.NewEncoder(w).Encode(ExtractResponse{Status: "processing"})
				return
			}
			json.NewEncoder(w).Encode(ExtractResponse{Status: "completed", Text: "large document text"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	text, err := c.Extract(context.Background(), "claims/c1/big.pdf")
	require.NoError(t, err)
	assert.Equal(t, "large document text", text)
	assert.Equal(t, int32(2), polls.Load())
}

func TestExtract_PollBoundIsEnforced(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/extract-text":
			json.NewEncoder(w).Encode(ExtractResponse{Status: "processing", JobID: "job-7"})
		default:
			json.NewEncoder(w).Encode(ExtractResponse{Status: "processing"})
		}
	}))
	defer srv.Close()

	_, err := c.Extract(context.Background(), "claims/c1/big.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not finish after 3 polls")
}

func TestStartJob(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/video-jobs", r.URL.Path)
		json.NewEncoder(w).Encode(VideoJobResponse{JobID: "job-42", Status: "processing"})
	}))
	defer srv.Close()

	jobID, err := c.StartJob(context.Background(), "claims/c1/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "job-42", jobID)
}

func TestJobResult_FiltersLowConfidenceLabels(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/video-jobs/job-42", r.URL.Path)
		json.NewEncoder(w).Encode(VideoJobResponse{
			JobID:  "job-42",
			Status: "completed",
			Labels: []Label{
				{Name: "Person Running", Confidence: 91.2},
				{Name: "Umbrella", Confidence: 55.0},
				{Name: "Vehicle", Confidence: 80.0}, // at threshold, excluded
				{Name: "Person Running", Confidence: 91.2},
				{Name: "Collision", Confidence: 97.345},
			},
		})
	}))
	defer srv.Close()

	res, err := c.JobResult(context.Background(), "job-42")
	require.NoError(t, err)
	assert.Equal(t, []string{"Collision (97.35%)", "Person Running (91.20%)"}, res.DetectedObjects)
}

func TestJobResult_UnfinishedJob(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(VideoJobResponse{JobID: "job-42", Status: "processing"})
	}))
	defer srv.Close()

	_, err := c.JobResult(context.Background(), "job-42")
	assert.Error(t, err)
}

func TestDo_SurfacesHTTPErrors(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "file_key missing", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := c.DetectObjectsAndText(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "file_key missing")
}
