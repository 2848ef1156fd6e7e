// Package fetch performs outbound HTTP calls with bounded retries,
// exponential backoff with jitter and a per-attempt timeout.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Config controls retry behavior
type Config struct {
	Attempts       int
	BaseDelay      time.Duration
	MaxJitter      time.Duration
	AttemptTimeout time.Duration
}

// DefaultConfig returns 3 attempts, 300ms base delay, 100ms jitter and a 10s
// per-attempt timeout
func DefaultConfig() Config {
	return Config{
		Attempts:       3,
		BaseDelay:      300 * time.Millisecond,
		MaxJitter:      100 * time.Millisecond,
		AttemptTimeout: 10 * time.Second,
	}
}

// StatusError is returned for a non-2xx response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// RequestBuilder creates a fresh request for each attempt
type RequestBuilder func(ctx context.Context) (*http.Request, error)

// Client wraps an http.Client with retries
type Client struct {
	httpClient *http.Client
	cfg        Config
	name       string
}

// NewClient creates a retrying client. name tags log lines.
func NewClient(name string, httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	def := DefaultConfig()
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxJitter < 0 {
		cfg.MaxJitter = 0
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	return &Client{httpClient: httpClient, cfg: cfg, name: name}
}

// Do executes the request built by build and returns the response body.
// Transport errors, timeouts and 5xx responses are retried; other non-2xx
// responses fail immediately with a *StatusError.
func (c *Client) Do(ctx context.Context, build RequestBuilder) ([]byte, error) {
	backoff := retry.NewExponential(c.cfg.BaseDelay)
	if c.cfg.MaxJitter > 0 {
		backoff = retry.WithJitter(c.cfg.MaxJitter, backoff)
	}
	backoff = retry.WithMaxRetries(uint64(c.cfg.Attempts-1), backoff)

	attempt := 0
	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, err := c.attempt(ctx, build)
		if err == nil {
			body = b
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Printf("[%s] Attempt %d/%d failed: err=%v", c.name, attempt, c.cfg.Attempts, err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, build RequestBuilder) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req, err := build(attemptCtx)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	return body, nil
}
