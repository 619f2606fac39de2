// Package notion is a read-only HTTP client for the Notion API, covering
// the five operations the fetch core runs on: retrieve page, retrieve
// database, retrieve block, list children, and query database rows.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	connectTimeout  = 10 * time.Second
	requestTimeout  = 30 * time.Second
	poolIdleTimeout = 90 * time.Second

	// maxRetries counts retries after the first attempt: 3 attempts in all.
	maxRetries     = 2
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 5 * time.Second

	// Notion allows roughly 3 requests per second per integration.
	rateLimitInterval = 350 * time.Millisecond
)

// Client is the Notion API client.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	version    string
	maxRetries int
	limiter    *rate.Limiter
}

// NewClient creates a new Notion API client with the given token.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext:     (&net.Dialer{Timeout: connectTimeout}).DialContext,
				IdleConnTimeout: poolIdleTimeout,
			},
		},
		token:      token,
		baseURL:    defaultBaseURL,
		version:    apiVersion,
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(rate.Every(rateLimitInterval), 1),
	}
}

// WithHTTPClient sets a custom HTTP client.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// WithBaseURL sets a custom base URL (useful for testing).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithMaxRetries sets the maximum number of retries for transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// WithRateLimit overrides the client-side request interval.
func (c *Client) WithRateLimit(interval time.Duration) *Client {
	c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return c
}

// getRaw performs a GET request and returns the raw response body.
func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, path, nil)
}

// postRaw performs a POST request with a JSON body and returns the raw
// response body.
func (c *Client) postRaw(ctx context.Context, path string, body any) ([]byte, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.doRequest(ctx, http.MethodPost, path, jsonData)
}

// doRequest performs an HTTP request with retry for rate limits and
// transient errors. Retries back off exponentially from 100ms to a 5s cap
// and honor Retry-After when the server provides one.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt, lastErr)
			slog.Debug("retrying request",
				"method", method,
				"path", path,
				"attempt", attempt,
				"delay", delay.String())

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		data, err := c.doRequestOnce(ctx, method, path, body)
		if err != nil {
			lastErr = err
			if IsRetryable(err) && ctx.Err() == nil {
				continue
			}
			return nil, err
		}
		return data, nil
	}

	return nil, lastErr
}

// doRequestOnce performs a single HTTP request attempt with auth/version
// headers and consistent error decoding.
func (c *Client) doRequestOnce(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Notion-Version", c.version)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(data, &errResp); err != nil {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Response:   &errResp,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	return data, nil
}

// retryDelay computes the delay before the next retry attempt.
func (c *Client) retryDelay(attempt int, lastErr error) time.Duration {
	if apiErr, ok := AsAPIError(lastErr); ok && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	delay := baseRetryDelay << (attempt - 1)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	// Jitter of up to 25% keeps parallel workers from retrying in lockstep.
	if quarter := int64(delay / 4); quarter > 0 {
		delay += time.Duration(rand.Int63n(quarter))
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// parseRetryAfter parses the Retry-After header, returning 0 when absent
// or unparseable.
func parseRetryAfter(retryAfter string) time.Duration {
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}
