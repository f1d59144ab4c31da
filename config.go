package pagelayout

import "github.com/goliatone/go-pagelayout/internal/runtimeconfig"

var (
	ErrDefaultLanguageRequired   = runtimeconfig.ErrDefaultLanguageRequired
	ErrLoggingProviderRequired   = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
	ErrWorkerPollIntervalInvalid = runtimeconfig.ErrWorkerPollIntervalInvalid
	ErrWorkerBatchSizeInvalid    = runtimeconfig.ErrWorkerBatchSizeInvalid
)

type (
	Config            = runtimeconfig.Config
	LoggingConfig     = runtimeconfig.LoggingConfig
	TranslationConfig = runtimeconfig.TranslationConfig
	WorkerConfig      = runtimeconfig.WorkerConfig
	ThemeConfig       = runtimeconfig.ThemeConfig
	CacheConfig       = runtimeconfig.CacheConfig
)

// DefaultConfig returns the configuration the module uses when the host
// supplies nothing: structured JSON logging, a five second worker poll, the
// builtin theme catalog, and translation disabled.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
