package fetch

import (
	"math"
	"math/rand"
	"strconv"
	"time"
)

// Config holds rate limiting and retry configuration
type Config struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	Timeout           time.Duration `mapstructure:"timeout"`
	// MaxBytes caps the size of a downloaded body, 0 means unlimited.
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// DefaultConfig returns the default fetch configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		Timeout:           30 * time.Second,
		MaxBytes:          64 << 20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// IsRetryableStatus reports whether a response status is worth retrying:
// 429 and any 5xx.
func IsRetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// Backoff returns the exponential delay for attempt with 0-25% jitter,
// capped at MaxBackoff.
func Backoff(attempt int, cfg Config) time.Duration {
	return backoff(attempt, 2, cfg)
}

// RateLimitBackoff is the delay after a 429. A Retry-After value in seconds
// wins, otherwise the delay grows 3x per attempt.
func RateLimitBackoff(attempt int, cfg Config, retryAfter string) time.Duration {
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds)*time.Second + time.Duration(rand.Int63n(int64(time.Second)))
	}
	return backoff(attempt, 3, cfg)
}

func backoff(attempt int, base float64, cfg Config) time.Duration {
	delay := float64(cfg.InitialBackoff) * math.Pow(base, float64(attempt))
	delay = math.Min(delay, float64(cfg.MaxBackoff))
	jitter := rand.Float64() * 0.25 * delay
	return time.Duration(delay + jitter)
}
