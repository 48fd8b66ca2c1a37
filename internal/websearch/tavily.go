package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultTavilyEndpoint is the Tavily search API endpoint.
const DefaultTavilyEndpoint = "https://api.tavily.com/search"

// TavilyProvider implements Provider using the Tavily search API.
type TavilyProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

var _ Provider = (*TavilyProvider)(nil)

// NewTavilyProvider creates a Tavily provider. Returns nil when apiKey is
// empty (disabled configuration).
func NewTavilyProvider(apiKey string) *TavilyProvider {
	if apiKey == "" {
		return nil
	}
	return &TavilyProvider{
		client:   newHTTPClient(),
		endpoint: DefaultTavilyEndpoint,
		apiKey:   apiKey,
	}
}

// Name identifies the provider.
func (p *TavilyProvider) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search queries Tavily and maps hits to Results.
func (p *TavilyProvider) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:     p.apiKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tavily: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned status %d: %s", resp.StatusCode, string(msg))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{Title: r.Title, Snippet: r.Content})
	}
	return results, nil
}
