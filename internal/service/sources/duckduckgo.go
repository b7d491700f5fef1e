package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"episodic/internal/domain/models/writing"
)

// DefaultDuckDuckGoBaseURL is the Instant Answer endpoint. It needs no key.
const DefaultDuckDuckGoBaseURL = "https://api.duckduckgo.com/"

// DuckDuckGoClient implements WebSearcher over the Instant Answer API.
// Results are the abstract (when present) followed by related topics.
type DuckDuckGoClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDuckDuckGoClient creates a client; an empty baseURL uses the public endpoint
func NewDuckDuckGoClient(baseURL string, timeout time.Duration) *DuckDuckGoClient {
	if baseURL == "" {
		baseURL = DefaultDuckDuckGoBaseURL
	}
	return &DuckDuckGoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *DuckDuckGoClient) Name() string { return "duckduckgo" }

// Search implements WebSearcher.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, maxResults int) ([]writing.WebResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_redirect", "1")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d)", resp.StatusCode)
	}

	var answer ddgAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]writing.WebResult, 0)
	if answer.AbstractText != "" {
		title := answer.Heading
		if title == "" {
			title = query
		}
		results = append(results, writing.WebResult{Title: title, URL: answer.AbstractURL, Snippet: answer.AbstractText})
	}
	for _, topic := range answer.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		title, _, _ := strings.Cut(topic.Text, "-")
		results = append(results, writing.WebResult{
			Title:   strings.TrimSpace(title),
			URL:     topic.FirstURL,
			Snippet: topic.Text,
		})
	}

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

type ddgAnswer struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// Category groups come back as topics with no Text; they are skipped.
type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}
