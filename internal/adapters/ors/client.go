// Package ors talks to OpenRouteService for geocoding and street routes.
package ors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"multimodal-route-service/internal/platform/retry"
)

const DefaultBaseURL = "https://api.openrouteservice.org"

// HTTPStatusError is a non-2xx response from the API.
type HTTPStatusError struct {
	Code int
	Body string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Client is safe for concurrent use. Retries are left to the caller's retry.Policy;
// client errors other than 429 are marked permanent.
type Client struct {
	session *http.Client
	apiKey  string
	baseURL string
	country string
}

type Option func(*Client)

// WithBaseURL points the client at another deployment, e.g. a self-hosted instance or a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.session = h }
}

// WithCountry sets the ISO country boundary of geocode searches.
func WithCountry(code string) Option {
	return func(c *Client) { c.country = code }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	c := &Client{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		country: "NL",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		statusErr := &HTTPStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(statusErr)
		}
		return nil, statusErr
	}
	return resp, nil
}
