package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
)

// ErrEmptyResponse reports a translation reply without any translated text.
var ErrEmptyResponse = errors.New("translate: empty translation response")

type translateRequest struct {
	Query  string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	// LibreTranslate-style endpoints reply with a flat field instead.
	TranslatedText string `json:"translatedText"`
}

// HTTPClient talks to a Google-/LibreTranslate-compatible translation
// endpoint with exponential backoff on transient failures. The API key rides
// on the URL as a key query parameter, never in the request body.
type HTTPClient struct {
	cfg      Config
	endpoint string
	client   *http.Client
	logger   interfaces.Logger
}

var _ interfaces.TranslatorClient = (*HTTPClient)(nil)

// ClientOption customizes the HTTP client.
type ClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithClientLogger attaches a logger to the client.
func WithClientLogger(logger interfaces.Logger) ClientOption {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHTTPClient builds a translation client from the supplied tuning.
func NewHTTPClient(cfg Config, opts ...ClientOption) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("translate: invalid config: %w", err)
	}
	cfg = cfg.withDefaults()
	endpoint, err := endpointWithKey(cfg.Endpoint, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("translate: invalid endpoint: %w", err)
	}
	client := &HTTPClient{
		cfg:      cfg,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.RequestTimeout},
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Translate sends one text unit and returns the translated copy. Transient
// failures (429, 5xx, network errors) retry with exponential backoff up to
// MaxAttempts; other HTTP errors fail immediately.
func (c *HTTPClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = c.cfg.MaxBackoff

	var retries uint64
	if c.cfg.MaxAttempts > 1 {
		retries = uint64(c.cfg.MaxAttempts - 1)
	}

	var translated string
	operation := func() error {
		result, err := c.translateOnce(ctx, text, source, target)
		if err != nil {
			return err
		}
		translated = result
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx))
	if err != nil {
		return "", err
	}
	return translated, nil
}

func (c *HTTPClient) translateOnce(ctx context.Context, text, source, target string) (string, error) {
	payload, err := json.Marshal(translateRequest{
		Query:  text,
		Source: source,
		Target: target,
		Format: "text",
	})
	if err != nil {
		return "", backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		// Network errors retry.
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("translate: endpoint returned %d", resp.StatusCode)
		if retryableStatus(resp.StatusCode) {
			c.logger.Warn("translation request failed, retrying",
				"status", resp.StatusCode,
				"target", target,
			)
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	var decoded translateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", backoff.Permanent(fmt.Errorf("translate: decode response: %w", err))
	}

	result := decoded.TranslatedText
	if len(decoded.Data.Translations) > 0 {
		result = decoded.Data.Translations[0].TranslatedText
	}
	if result == "" {
		return "", backoff.Permanent(ErrEmptyResponse)
	}

	c.logger.Debug("translated segment",
		"target", target,
		"bytes", len(text),
		"took", time.Since(start).String(),
	)
	return result, nil
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func endpointWithKey(endpoint, apiKey string) (string, error) {
	if apiKey == "" {
		return endpoint, nil
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("key", apiKey)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
