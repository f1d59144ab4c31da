package pages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagelayout/internal/identity"
	"github.com/google/uuid"
)

const themePagePrefix = "theme-"

// NormalizeID maps an external page identifier to the internal UUID key.
// Identifiers historically arrive as UUID strings, integers, numeric strings,
// or synthetic theme keys of the form "theme-<theme>-<page>"; every
// representation of the same logical page converges on the same UUID, so the
// store never needs to probe multiple representations.
func NormalizeID(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case uuid.UUID:
		if v == uuid.Nil {
			return uuid.Nil, ErrPageIDInvalid
		}
		return v, nil
	case *uuid.UUID:
		if v == nil || *v == uuid.Nil {
			return uuid.Nil, ErrPageIDInvalid
		}
		return *v, nil
	case int:
		return identity.LegacyPageUUID(int64(v)), nil
	case int32:
		return identity.LegacyPageUUID(int64(v)), nil
	case int64:
		return identity.LegacyPageUUID(v), nil
	case float64:
		// JSON numbers decode as float64; reject fractional ids.
		if v != float64(int64(v)) {
			return uuid.Nil, fmt.Errorf("%w: %v", ErrPageIDInvalid, v)
		}
		return identity.LegacyPageUUID(int64(v)), nil
	case string:
		return normalizeStringID(v)
	default:
		return uuid.Nil, fmt.Errorf("%w: %T", ErrPageIDInvalid, value)
	}
}

func normalizeStringID(raw string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uuid.Nil, ErrPageIDInvalid
	}
	if parsed, err := uuid.Parse(trimmed); err == nil {
		return parsed, nil
	}
	if numeric, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return identity.LegacyPageUUID(numeric), nil
	}
	if strings.HasPrefix(trimmed, themePagePrefix) {
		if theme, page, ok := splitThemePageKey(trimmed); ok {
			return identity.ThemePageUUID(theme, page), nil
		}
	}
	return uuid.Nil, fmt.Errorf("%w: %q", ErrPageIDInvalid, raw)
}

// splitThemePageKey breaks "theme-<theme>-<page>" into its parts. Theme slugs
// contain no dashes beyond word separators, so the first segment after the
// prefix is the theme and the remainder is the page slug.
func splitThemePageKey(key string) (theme, page string, ok bool) {
	rest := strings.TrimPrefix(key, themePagePrefix)
	parts := strings.SplitN(rest, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ThemePageKey builds the synthetic external identifier for a filesystem page.
func ThemePageKey(themeSlug, pageSlug string) string {
	sanitized := sanitizePageSlug(pageSlug)
	if sanitized == "" {
		sanitized = "homepage"
	}
	return themePagePrefix + strings.ToLower(strings.TrimSpace(themeSlug)) + "-" + sanitized
}

func sanitizePageSlug(slug string) string {
	cleaned := strings.ToLower(strings.TrimSpace(slug))
	cleaned = strings.Trim(cleaned, "/")
	var b strings.Builder
	for _, r := range cleaned {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_':
			b.WriteRune(r)
		case r == '/', r == ' ':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
