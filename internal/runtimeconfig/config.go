package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-pagelayout/internal/translate"
)

// ErrLoggingProviderRequired rejects configurations with no logging backend.
var ErrLoggingProviderRequired = errors.New("pagelayout config: logging provider is required")

// ErrLoggingProviderUnknown rejects logging backends the module cannot build.
var ErrLoggingProviderUnknown = errors.New("pagelayout config: logging provider is invalid")

// ErrLoggingLevelInvalid rejects levels outside the go-logger set.
var ErrLoggingLevelInvalid = errors.New("pagelayout config: logging level is invalid")

// ErrLoggingFormatInvalid rejects formats the go-logger adapter does not emit.
var ErrLoggingFormatInvalid = errors.New("pagelayout config: logging format is invalid")

// ErrWorkerPollIntervalInvalid rejects non-positive worker poll intervals.
var ErrWorkerPollIntervalInvalid = errors.New("pagelayout config: worker poll interval must be positive")

// ErrWorkerBatchSizeInvalid rejects non-positive worker batch sizes.
var ErrWorkerBatchSizeInvalid = errors.New("pagelayout config: worker batch size must be positive")

// ErrDefaultLanguageRequired rejects configurations with a blank fallback language.
var ErrDefaultLanguageRequired = errors.New("pagelayout config: default language is required")

// Config aggregates the module's feature toggles and adapter settings.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	// DefaultLanguage is the fallback content language when a tenant has not
	// configured one of its own.
	DefaultLanguage string
	Logging         LoggingConfig
	Translation     TranslationConfig
	Worker          WorkerConfig
	Themes          ThemeConfig
	Cache           CacheConfig
}

// CacheConfig toggles read caching on the database-backed repositories.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// LoggingConfig selects and tunes the logging backend.
type LoggingConfig struct {
	// Provider picks the backend: "gologger" or "noop".
	Provider  string
	Level     string
	Format    string
	AddSource bool
}

// TranslationConfig toggles the machine-translation pipeline and carries the
// HTTP client settings forwarded to it.
type TranslationConfig struct {
	Enabled bool
	Client  translate.Config
}

// WorkerConfig tunes the background job worker.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// ThemeConfig controls the filesystem theme catalog.
type ThemeConfig struct {
	Enabled bool
	// Builtin registers the bundled landing theme alongside any host-supplied
	// theme filesystem.
	Builtin bool
}

// DefaultConfig returns the settings the module runs with when the host
// supplies nothing.
func DefaultConfig() Config {
	return Config{
		DefaultLanguage: "en",
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
		Translation: TranslationConfig{
			Client: translate.DefaultConfig(),
		},
		Worker: WorkerConfig{
			PollInterval: 5 * time.Second,
			BatchSize:    50,
		},
		Themes: ThemeConfig{
			Enabled: true,
			Builtin: true,
		},
	}
}

var validLogLevels = map[string]bool{
	"": true, "trace": true, "debug": true, "info": true,
	"warn": true, "warning": true, "error": true, "fatal": true,
}

var validLogFormats = map[string]bool{
	"": true, "json": true, "console": true, "pretty": true,
}

// Validate checks cross-field consistency before the module wires anything.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DefaultLanguage) == "" {
		return ErrDefaultLanguageRequired
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Provider)) {
	case "":
		return ErrLoggingProviderRequired
	case "gologger", "noop":
	default:
		return ErrLoggingProviderUnknown
	}
	if !validLogLevels[strings.ToLower(strings.TrimSpace(c.Logging.Level))] {
		return ErrLoggingLevelInvalid
	}
	if !validLogFormats[strings.ToLower(strings.TrimSpace(c.Logging.Format))] {
		return ErrLoggingFormatInvalid
	}

	if c.Worker.PollInterval <= 0 {
		return ErrWorkerPollIntervalInvalid
	}
	if c.Worker.BatchSize <= 0 {
		return ErrWorkerBatchSizeInvalid
	}

	if c.Translation.Enabled {
		if err := c.Translation.Client.Validate(); err != nil {
			return fmt.Errorf("pagelayout config: translation: %w", err)
		}
	}

	return nil
}
