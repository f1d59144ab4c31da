package logging

import (
	"context"
	"maps"

	"github.com/goliatone/go-pagelayout/pkg/interfaces"
)

const (
	rootModule      = "pagelayout"
	pagesModule     = "pagelayout.pages"
	layoutsModule   = "pagelayout.layouts"
	translateModule = "pagelayout.translate"
	jobsModule      = "pagelayout.jobs"
	themesModule    = "pagelayout.themes"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// PagesLogger returns the logger namespace reserved for the page registry.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

// LayoutsLogger returns the logger namespace reserved for the layout store.
func LayoutsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, layoutsModule)
}

// TranslateLogger returns the logger namespace reserved for the translation pipeline.
func TranslateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, translateModule)
}

// JobsLogger returns the logger namespace reserved for background workers.
func JobsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, jobsModule)
}

// ThemesLogger returns the logger namespace reserved for theme fallback loading.
func ThemesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, themesModule)
}

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension. Callers can pass nil or an
// empty map to skip allocation safely.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}
	return logger
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

// NoOpProvider returns a provider whose loggers drop every entry. It backs
// the "noop" logging configuration and tests that do not assert on output.
func NoOpProvider() interfaces.LoggerProvider {
	return noopProvider{}
}

type noopProvider struct{}

var _ interfaces.LoggerProvider = noopProvider{}

func (noopProvider) GetLogger(string) interfaces.Logger {
	return NoOp()
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
