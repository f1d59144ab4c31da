package translate

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config tunes the translation client and pipeline. Zero values fall back to
// the defaults below, so hosts only set what they need to change.
type Config struct {
	// Endpoint is the translation API URL, e.g. a LibreTranslate-compatible
	// POST endpoint.
	Endpoint string
	// APIKey is sent with every request when the endpoint requires one.
	APIKey string
	// RequestTimeout bounds one translation HTTP call, retries included.
	RequestTimeout time.Duration
	// MaxAttempts caps retries per request. Minimum one.
	MaxAttempts int
	// InitialBackoff seeds the exponential retry delay.
	InitialBackoff time.Duration
	// MaxBackoff caps the exponential retry delay.
	MaxBackoff time.Duration
	// ChunkBytes caps the byte size of a single translated text unit. Longer
	// segments are split on sentence, then word boundaries.
	ChunkBytes int
	// BatchSize bounds how many segments translate concurrently.
	BatchSize int
	// BatchDelay inserts a pause between segment batches to stay under
	// provider rate limits.
	BatchDelay time.Duration
}

// DefaultConfig returns the tuning used when the host supplies nothing.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 60 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		ChunkBytes:     4500,
		BatchSize:      5,
		BatchDelay:     200 * time.Millisecond,
	}
}

// Validate checks host-supplied tuning.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.MaxAttempts, validation.Min(1)),
		validation.Field(&c.ChunkBytes, validation.Min(0)),
		validation.Field(&c.BatchSize, validation.Min(0)),
	)
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaults.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.ChunkBytes <= 0 {
		c.ChunkBytes = defaults.ChunkBytes
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = defaults.BatchDelay
	}
	return c
}
