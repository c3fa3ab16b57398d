// Package pokemontcg is a read-only client for the Pokémon TCG catalog API
// (sets, card search and card detail).
package pokemontcg

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

	"github.com/ramonehamilton/PTCG-Companion/internal/metrics"
	"github.com/ramonehamilton/PTCG-Companion/internal/version"
)

const (
	// DefaultBaseURL is the public catalog API root.
	DefaultBaseURL = "https://api.pokemontcg.io/v2"

	// DefaultRequestSpacing keeps successive requests under the API's rate limit.
	DefaultRequestSpacing = 200 * time.Millisecond

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// ClientOptions configures the catalog client.
type ClientOptions struct {
	// BaseURL overrides the API root (default: DefaultBaseURL)
	BaseURL string

	// APIKey is sent as X-Api-Key when set
	APIKey string

	// RequestSpacing is the minimum delay between two requests (default: 200ms).
	// Negative disables spacing.
	RequestSpacing time.Duration

	// Timeout for HTTP requests (default: 30 seconds)
	Timeout time.Duration

	// PageSize for card listings (0 = API default)
	PageSize int

	// HTTPClient allows custom HTTP client
	HTTPClient *http.Client

	// Metrics records request outcomes when set
	Metrics *metrics.APIMetrics
}

// Client represents a catalog API client with rate limiting.
// Every call makes exactly one attempt; callers decide whether to retry.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	apiKey      string
	pageSize    int
	userAgent   string
	metrics     *metrics.APIMetrics
}

// NewClient creates a new catalog API client.
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.RequestSpacing == 0 {
		options.RequestSpacing = DefaultRequestSpacing
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	return &Client{
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(spacingLimit(options.RequestSpacing), 1),
		baseURL:     strings.TrimRight(options.BaseURL, "/"),
		apiKey:      options.APIKey,
		pageSize:    options.PageSize,
		userAgent:   version.UserAgent(),
		metrics:     options.Metrics,
	}
}

func spacingLimit(spacing time.Duration) rate.Limit {
	if spacing <= 0 {
		return rate.Inf
	}
	return rate.Every(spacing)
}

// SetRequestSpacing changes the minimum delay between requests at runtime.
func (c *Client) SetRequestSpacing(spacing time.Duration) {
	c.rateLimiter.SetLimit(spacingLimit(spacing))
}

// GetSets retrieves every set.
func (c *Client) GetSets(ctx context.Context) ([]Set, error) {
	var sets setList
	if err := c.doRequest(ctx, "/sets", nil, &sets); err != nil {
		return nil, fmt.Errorf("failed to get sets: %w", err)
	}
	return sets.Data, nil
}

// SearchCards returns cards whose name matches query.
func (c *Client) SearchCards(ctx context.Context, query string) ([]Card, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	cards, err := c.listCards(ctx, "name:"+quoteTerm(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search cards with query '%s': %w", query, err)
	}
	return cards, nil
}

// GetCardsBySet returns the cards of one set.
func (c *Client) GetCardsBySet(ctx context.Context, setID string) ([]Card, error) {
	if setID == "" {
		return nil, fmt.Errorf("set id is required")
	}

	cards, err := c.listCards(ctx, "set.id:"+quoteTerm(setID))
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for set %s: %w", setID, err)
	}
	return cards, nil
}

// GetCard retrieves a card by its catalog ID.
func (c *Client) GetCard(ctx context.Context, id string) (*Card, error) {
	if id == "" {
		return nil, fmt.Errorf("card id is required")
	}

	var envelope cardEnvelope
	if err := c.doRequest(ctx, "/cards/"+url.PathEscape(id), nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return &envelope.Data, nil
}

func (c *Client) listCards(ctx context.Context, q string) ([]Card, error) {
	params := url.Values{}
	params.Set("q", q)
	if c.pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(c.pageSize))
	}

	var cards cardList
	if err := c.doRequest(ctx, "/cards", params, &cards); err != nil {
		return nil, err
	}
	return cards.Data, nil
}

// quoteTerm wraps multi-word search terms in quotes.
func quoteTerm(term string) string {
	if strings.ContainsAny(term, " \t") {
		return `"` + strings.ReplaceAll(term, `"`, ``) + `"`
	}
	return term
}

// doRequest performs one rate-limited GET and decodes the JSON body.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Observe(0, time.Since(start))
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.Observe(resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{URL: endpoint}

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return nil

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		var envelope struct {
			Error APIError `json:"error"`
		}
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
			apiErr.Message = envelope.Error.Message
			apiErr.Code = envelope.Error.Code
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
}
