// Package backend is the client for the Kolectors collection backend:
// authentication, the user's collection and profile.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/metrics"
	"github.com/ramonehamilton/PTCG-Companion/internal/version"
)

const (
	// DefaultBaseURL is the hosted backend API root.
	DefaultBaseURL = "https://api.kolectors.live/api"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() (string, bool)
}

// ClientOptions configures the backend client.
type ClientOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client

	// Metrics records request outcomes when set
	Metrics *metrics.APIMetrics
}

// Client talks to the collection backend. Each call makes one attempt.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	userAgent  string
	metrics    *metrics.APIMetrics
}

// NewClient creates a backend client authenticating with tokens.
func NewClient(tokens TokenSource, options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		tokens:     tokens,
		userAgent:  version.UserAgent(),
		metrics:    options.Metrics,
	}
}

// Login exchanges credentials for a token and the user's profile.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result LoginResult
	status, err := c.do(ctx, http.MethodPost, "/login", body, false, &result)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusUnprocessableEntity {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login failed: response has no token")
	}
	return &result, nil
}

// Register creates an account. It succeeds only when the reply's
// status_code is 201. A structured rejection is a *RegistrationError;
// a reply that is not a registration payload is a *StatusError.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/register", req, false)
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var reply registerReply
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(data, &reply); err != nil || reply.empty() {
		return "", &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if reply.StatusCode == http.StatusCreated {
		return reply.StatusMessage, nil
	}

	regErr := &RegistrationError{
		StatusCode: reply.StatusCode,
		Message:    reply.StatusMessage,
		Fields:     reply.ErrorsList,
	}
	if regErr.StatusCode == 0 {
		regErr.StatusCode = resp.StatusCode
	}
	if regErr.Message == "" {
		regErr.Message = "registration failed"
	}
	return "", regErr
}

// ListCollection returns the user's collection entries.
func (c *Client) ListCollection(ctx context.Context) ([]collection.Entry, error) {
	var entries []collection.Entry
	if _, err := c.do(ctx, http.MethodGet, "/collections", nil, true, &entries); err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}
	return entries, nil
}

// AddCard adds a catalog card to the collection.
func (c *Client) AddCard(ctx context.Context, cardID string) (*collection.Entry, error) {
	body := map[string]string{"pokemon_card_id": cardID}

	var entry collection.Entry
	status, err := c.do(ctx, http.MethodPost, "/collections/add", body, true, &entry)
	if err != nil {
		if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
			return nil, fmt.Errorf("failed to add card %s: %w", cardID, ErrConflict)
		}
		return nil, fmt.Errorf("failed to add card %s: %w", cardID, err)
	}
	if entry.CardID == "" {
		entry.CardID = cardID
	}
	return &entry, nil
}

// DeleteEntry removes one collection entry.
func (c *Client) DeleteEntry(ctx context.Context, entryID int64) error {
	path := "/collections/" + strconv.FormatInt(entryID, 10)
	if _, err := c.do(ctx, http.MethodDelete, path, nil, true, nil); err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", entryID, err)
	}
	return nil
}

// GetProfile returns the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.do(ctx, http.MethodGet, "/user", nil, true, &user); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &user, nil
}

// send builds and executes one request. The caller owns the response body.
func (c *Client) send(ctx context.Context, method, path string, body interface{}, auth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token, ok := c.tokens.Token()
		if !ok {
			return nil, ErrMissingToken
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Observe(0, time.Since(start))
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	c.metrics.Observe(resp.StatusCode, time.Since(start))
	return resp, nil
}

// do executes a request and decodes a 2xx body into result. The returned
// status is 0 when no response was received.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, auth bool, result interface{}) (int, error) {
	resp, err := c.send(ctx, method, path, body, auth)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if auth && resp.StatusCode == http.StatusUnauthorized {
			return resp.StatusCode, ErrUnauthorized
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if result == nil {
		return resp.StatusCode, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if err := decodeData(data, result); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return resp.StatusCode, nil
}

// decodeData accepts both a bare payload and one wrapped in {"data": ...}.
func decodeData(data []byte, result interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 {
			if string(envelope.Data) == "null" {
				return nil
			}
			return json.Unmarshal(envelope.Data, result)
		}
	}
	return json.Unmarshal(trimmed, result)
}

func errorMessage(data []byte) string {
	var body struct {
		Message       string `json:"message"`
		StatusMessage string `json:"status_message"`
		Error         string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, m := range []string{body.Message, body.StatusMessage, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(data))
}
