package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultBraveEndpoint is the Brave web search API endpoint.
const DefaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveProvider implements Provider using the Brave search API.
type BraveProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

var _ Provider = (*BraveProvider)(nil)

// NewBraveProvider creates a Brave provider. Returns nil when apiKey is
// empty (disabled configuration).
func NewBraveProvider(apiKey string) *BraveProvider {
	if apiKey == "" {
		return nil
	}
	return &BraveProvider{
		client:   newHTTPClient(),
		endpoint: DefaultBraveEndpoint,
		apiKey:   apiKey,
	}
}

// Name identifies the provider.
func (p *BraveProvider) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search queries Brave and maps hits to Results.
func (p *BraveProvider) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call brave: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("brave returned status %d: %s", resp.StatusCode, string(msg))
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, Result{Title: r.Title, Snippet: r.Description})
	}
	return results, nil
}
