package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lysyi3m/newsdesk/app/apperr"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

type SearchClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	limiter    *rate.Limiter
}

// NewSearchClient creates a client for the article search API. A
// requestsPerSecond of zero disables client-side rate limiting.
func NewSearchClient(httpClient *http.Client, baseURL, apiKey, userAgent string, requestsPerSecond float64) *SearchClient {
	client := &SearchClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  userAgent,
	}
	if requestsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return client
}

// Search returns the raw documents of one result page. Every failure is an
// *apperr.UpstreamError; nothing is retried.
func (c *SearchClient) Search(ctx context.Context, query string, page int) ([]Document, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperr.Upstream(0, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	start := time.Now()
	docs, err := c.search(ctx, query, page)
	searchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		searchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	searchRequestsTotal.WithLabelValues("success").Inc()
	return docs, nil
}

func (c *SearchClient) search(ctx context.Context, query string, page int) ([]Document, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, apperr.Upstream(0, fmt.Errorf("invalid search URL: %w", err))
	}

	params := endpoint.Query()
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("api-key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, apperr.Upstream(0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(0, fmt.Errorf("failed to fetch articles: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperr.Upstream(resp.StatusCode, fmt.Errorf("HTTP error: %s: %s", resp.Status, body))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Upstream(resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	docs := make([]Document, 0, len(payload.Response.Docs))
	for i, raw := range payload.Response.Docs {
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			slog.Warn("Skipping undecodable search document", "query", query, "page", page, "index", i, "error", err)
			documentsSkippedTotal.Inc()
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
