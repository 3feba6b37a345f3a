package webex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public Webex API endpoint.
const DefaultBaseURL = "https://webexapis.com/v1"

// TokenProvider yields the bearer credential used to authenticate each
// API call. Implementations handle the OAuth flow, refresh and persistence.
type TokenProvider interface {
	BearerToken(ctx context.Context) (string, error)
}

// APIError describes a non-2xx response from the Webex API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("webex: unexpected status %d: %s", e.StatusCode, e.Message)
}

// Client is a thin Webex REST client. It keeps no state beyond the bearer
// credential source.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	log     *logrus.Entry
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a new client. An empty baseURL falls back to
// DefaultBaseURL.
func NewClient(baseURL string, tokens TokenProvider, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: time.Minute,
		},
		tokens: tokens,
		log:    logrus.WithField("component", "webex"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do issues a single authenticated request against the API. A non-2xx
// response is converted into an *APIError, the body of a successful
// response is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	url := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		url = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}

	var body io.Reader
	if payload != nil {
		blob, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request payload: %w", err)
		}
		body = bytes.NewReader(blob)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	bearer, err := c.tokens.BearerToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bearer credential: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+bearer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer res.Body.Close()

	c.log.Debugf("%s %s: %d", method, url, res.StatusCode)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &APIError{
			StatusCode: res.StatusCode,
			Message:    readErrorMessage(res.Body),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// readErrorMessage extracts the "message" field of an error response,
// falling back to the raw body.
func readErrorMessage(r io.Reader) string {
	blob, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(blob, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	return strings.TrimSpace(string(blob))
}
