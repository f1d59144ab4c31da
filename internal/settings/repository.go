package settings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-pagelayout/pages"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Setting keys consumed by the layout engine.
const (
	KeySiteLanguage         = "site_language"
	KeySiteContentLanguages = "site_content_languages"
)

// ErrSettingNotFound reports a missing setting for the requested scope.
var ErrSettingNotFound = errors.New("settings: setting not found")

// Setting is one key/value row, tenant-owned or master when TenantID is nil.
type Setting struct {
	bun.BaseModel `bun:"table:site_settings,alias:ss"`

	ID        uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	Key       string     `bun:"setting_key,notnull" json:"setting_key"`
	Value     string     `bun:"setting_value,notnull" json:"setting_value"`
	TenantID  *uuid.UUID `bun:"tenant_id,type:uuid" json:"tenant_id,omitempty"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Repository reads and writes tenant-scoped settings with master fallback.
type Repository interface {
	// Get resolves a setting for the scope, preferring the tenant row over a
	// master row sharing the key.
	Get(ctx context.Context, key string, scope pages.Scope) (string, error)
	// Set upserts a tenant-owned setting.
	Set(ctx context.Context, key, value string, tenantID uuid.UUID) error
}

// LanguageSet captures a tenant's configured content languages.
type LanguageSet struct {
	// Default is the tenant's canonical content language code.
	Default string
	// Configured lists every content language, usually including the default.
	Configured []string
}

// Targets returns the languages a default-language write must fan out to:
// every configured language minus the default and the literal "default" key.
func (ls LanguageSet) Targets() []string {
	out := make([]string, 0, len(ls.Configured))
	seen := make(map[string]bool, len(ls.Configured))
	for _, lang := range ls.Configured {
		code := strings.ToLower(strings.TrimSpace(lang))
		if code == "" || code == pages.LanguageDefault || code == ls.Default || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// Languages resolves the language configuration for a scope. Missing settings
// yield an empty set rather than an error so callers can treat "not
// configured" as "nothing to translate".
func Languages(ctx context.Context, repo Repository, scope pages.Scope) (LanguageSet, error) {
	if repo == nil {
		return LanguageSet{}, nil
	}
	set := LanguageSet{}

	if value, err := repo.Get(ctx, KeySiteLanguage, scope); err == nil {
		set.Default = strings.ToLower(strings.TrimSpace(value))
	} else if !errors.Is(err, ErrSettingNotFound) {
		return LanguageSet{}, err
	}

	if value, err := repo.Get(ctx, KeySiteContentLanguages, scope); err == nil {
		set.Configured = splitLanguages(value)
	} else if !errors.Is(err, ErrSettingNotFound) {
		return LanguageSet{}, err
	}

	return set, nil
}

func splitLanguages(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.ToLower(strings.TrimSpace(part)); code != "" {
			out = append(out, code)
		}
	}
	return out
}
