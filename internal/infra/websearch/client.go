package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// Client runs reverse image lookups through the Google Custom Search
// JSON API. A client with no credentials reports "not configured" status
// instead of failing the pipeline.
type Client struct {
	endpoint   string
	apiKey     string
	engineID   string
	httpClient *http.Client
}

func NewClient(apiKey, engineID string) *Client {
	return &Client{
		endpoint:   defaultEndpoint,
		apiKey:     apiKey,
		engineID:   engineID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEndpoint overrides the API endpoint; tests point this at a local
// fake.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// Configured reports whether the client has credentials to search with.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.engineID != ""
}

type searchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

// Search looks the image up by its public URL. Matches are the strongest
// fraud indicator in the pipeline; API errors degrade into the search
// status so one flaky lookup never fails a file.
func (c *Client) Search(ctx context.Context, publicURL string) (domain.ReverseSearchResult, error) {
	result := domain.ReverseSearchResult{SearchStatus: "not_configured"}
	if !c.Configured() {
		result.SearchStatus = "API keys not configured."
		return result, nil
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", publicURL)
	q.Set("searchType", "image")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return result, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		result.SearchStatus = fmt.Sprintf("API Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return result, fmt.Errorf("custom search: status %d: %s", resp.StatusCode, data)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return result, err
	}

	for _, item := range body.Items {
		result.URLs = append(result.URLs, item.Link)
	}
	result.MatchFound = len(result.URLs) > 0
	result.SearchStatus = "completed"
	return result, nil
}
