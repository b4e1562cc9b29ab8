// Package fetch downloads import files over HTTP with client-side rate
// limiting and retries.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// UserAgent is sent with every request.
const UserAgent = "Kosarica-StoreRecommender/1.0"

// ErrTooLarge is returned when a body exceeds Config.MaxBytes.
var ErrTooLarge = errors.New("response body too large")

// RetryError is returned when every attempt failed.
type RetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *RetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error { return e.LastError }

// Client is an HTTP client with rate limiting and retry logic
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
	logger     zerolog.Logger
	sleep      func(context.Context, time.Duration) error
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		config:     cfg,
		logger:     log.With().Str("component", "fetch").Logger(),
		sleep:      sleepContext,
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Get performs a GET request. A 2xx response is returned with its body
// open; anything else is retried or turned into a *RetryError.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &RetryError{URL: url, Attempts: attempt + 1, LastError: err}
		}
		req.Header.Set("User-Agent", UserAgent)
		req.Header.Set("Accept", "*/*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			lastStatus = 0
			if attempt < c.config.MaxRetries {
				if err := c.wait(ctx, url, attempt, Backoff(attempt, c.config)); err != nil {
					return nil, err
				}
			}
			continue
		}

		lastStatus = resp.StatusCode
		lastErr = nil
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		retryAfter := resp.Header.Get("Retry-After")
		resp.Body.Close()

		if !IsRetryableStatus(resp.StatusCode) || attempt == c.config.MaxRetries {
			return nil, &RetryError{URL: url, Attempts: attempt + 1, LastStatus: resp.StatusCode}
		}

		delay := Backoff(attempt, c.config)
		if resp.StatusCode == http.StatusTooManyRequests {
			delay = RateLimitBackoff(attempt, c.config, retryAfter)
		}
		if err := c.wait(ctx, url, attempt, delay); err != nil {
			return nil, err
		}
	}

	return nil, &RetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastError:  lastErr,
	}
}

// GetBytes performs a GET request and returns the response body as bytes
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if c.config.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, c.config.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if c.config.MaxBytes > 0 && int64(len(data)) > c.config.MaxBytes {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", url, ErrTooLarge, c.config.MaxBytes)
	}

	c.logger.Debug().Str("url", url).Int("bytes", len(data)).Str("sha256", ComputeSha256(data)).Msg("Fetched file")
	return data, nil
}

func (c *Client) wait(ctx context.Context, url string, attempt int, d time.Duration) error {
	c.logger.Warn().Str("url", url).Int("attempt", attempt+1).Dur("backoff", d).Msg("Retrying fetch")
	return c.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ComputeSha256 computes the SHA256 hash of the given data
func ComputeSha256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
