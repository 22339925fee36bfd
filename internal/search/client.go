// Package search queries the GitHub repository search API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/gitexplorer/internal/apperr"
	"github.com/abelbrown/gitexplorer/internal/config"
	"github.com/abelbrown/gitexplorer/internal/model"
)

// DefaultEndpoint is the public GitHub repository search endpoint.
const DefaultEndpoint = "https://api.github.com/search/repositories"

const userAgent = "gitexplorer/1.0 (+https://github.com/abelbrown/gitexplorer)"

// maxBody caps how much of a response is read.
const maxBody = 10 << 20

// Client issues one search request per call. It never retries or caches.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
}

type searchResponse struct {
	TotalCount int                `json:"total_count"`
	Items      []model.Repository `json:"items"`
}

// NewClient creates a Client from the search configuration.
// RequestsPerMinute <= 0 disables client-side pacing.
func NewClient(cfg config.SearchConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}
	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
		limiter:  limiter,
	}
}

// BuildQuery returns the q parameter for f: the query text, suffixed with
// a language qualifier when a language is selected.
func BuildQuery(f model.Filters) string {
	q := strings.TrimSpace(f.Query)
	if f.Language != "" {
		q += " language:" + f.Language
	}
	return q
}

// Search returns at most model.PageSize repositories for f, in the order the
// API ranks them. An empty query returns no results and issues no request.
//
// A 403 or 429 response yields an apperr RATE_LIMITED error. Every other
// failure is RETRIEVAL_FAILED. With pacing configured, Search waits for its
// turn before sending; a context that ends first is RETRIEVAL_FAILED.
func (c *Client) Search(ctx context.Context, f model.Filters) ([]model.Repository, error) {
	if strings.TrimSpace(f.Query) == "" {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.RetrievalFailed(fmt.Errorf("search: wait for request slot: %w", err))
	}

	sort := f.Sort
	if !sort.Valid() {
		sort = model.SortStars
	}
	params := url.Values{}
	params.Set("q", BuildQuery(f))
	params.Set("sort", string(sort))
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(model.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperr.RetrievalFailed(fmt.Errorf("search: failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.RetrievalFailed(fmt.Errorf("search: request cancelled: %w", ctx.Err()))
		}
		return nil, apperr.RetrievalFailed(fmt.Errorf("search: request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperr.RateLimited(fmt.Errorf("search: HTTP %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperr.RetrievalFailed(fmt.Errorf("search: HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, apperr.RetrievalFailed(fmt.Errorf("search: failed to read response: %w", err))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, apperr.RetrievalFailed(fmt.Errorf("search: failed to parse response: %w", err))
	}
	if sr.Items == nil {
		return []model.Repository{}, nil
	}
	if len(sr.Items) > model.PageSize {
		sr.Items = sr.Items[:model.PageSize]
	}
	return sr.Items, nil
}
