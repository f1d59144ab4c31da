package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// TenantUUID maps an external tenant identifier to a stable UUID. The
// reserved "demo" tenant resolves to the same id on every node.
func TenantUUID(tenantKey string) uuid.UUID {
	return UUID("pagelayout:tenant:" + strings.ToLower(strings.TrimSpace(tenantKey)))
}

// LegacyPageUUID maps a numeric legacy page id to a stable UUID. Page
// identifiers historically crossed the API boundary as either integers or
// numeric strings; both representations converge here.
func LegacyPageUUID(id int64) uuid.UUID {
	return UUID("pagelayout:page:legacy:" + strconv.FormatInt(id, 10))
}

// ThemePageUUID derives the id for a page synthesized from a theme's
// pages.json so repeated filesystem reads produce identical records.
func ThemePageUUID(themeSlug, pageSlug string) uuid.UUID {
	theme := strings.ToLower(strings.TrimSpace(themeSlug))
	page := strings.ToLower(strings.TrimSpace(pageSlug))
	return UUID("pagelayout:theme-page:" + theme + ":" + page)
}

// ThemeUUID derives a stable id for an on-disk theme.
func ThemeUUID(themeSlug string) uuid.UUID {
	return UUID("pagelayout:theme:" + strings.ToLower(strings.TrimSpace(themeSlug)))
}
