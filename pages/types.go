package pages

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Page statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Page types recognized by the registry. The list is advisory; hosts may
// register additional types.
const (
	TypePage   = "page"
	TypeHeader = "header"
	TypeFooter = "footer"
	TypeLegal  = "legal"
)

// LanguageDefault is the language key of a page's canonical layout. Translated
// copies are stored under concrete language codes (en, fr, ...).
const LanguageDefault = "default"

// ThemeCustom marks pages that belong to no installed theme.
const ThemeCustom = "custom"

// Page is a logical page owned either by a tenant or, when TenantID is nil,
// by the shared master catalog visible to every tenant.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID              uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	PageName        string         `bun:"page_name,notnull" json:"page_name"`
	Slug            string         `bun:"slug,notnull" json:"slug"`
	PageType        string         `bun:"page_type,notnull,default:'page'" json:"page_type"`
	Status          string         `bun:"status,notnull,default:'draft'" json:"status"`
	TenantID        *uuid.UUID     `bun:"tenant_id,type:uuid" json:"tenant_id,omitempty"`
	ThemeID         *string        `bun:"theme_id" json:"theme_id,omitempty"`
	SEOIndex        bool           `bun:"seo_index,notnull,default:true" json:"seo_index"`
	MetaTitle       *string        `bun:"meta_title" json:"meta_title,omitempty"`
	MetaDescription *string        `bun:"meta_description" json:"meta_description,omitempty"`
	Metadata        map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	// FromFilesystem marks records synthesized from a theme's pages.json that
	// have not (yet) been promoted into the database.
	FromFilesystem bool `bun:"-" json:"from_filesystem,omitempty"`

	Layouts []*PageLayout `bun:"rel:has-many,join:id=page_id" json:"layouts,omitempty"`
}

// IsMaster reports whether the page belongs to the shared master catalog.
func (p *Page) IsMaster() bool {
	return p != nil && p.TenantID == nil
}

// PageLayout stores the versioned JSON layout document for one page in one
// language. Uniqueness over (page_id, language) is enforced by the schema.
type PageLayout struct {
	bun.BaseModel `bun:"table:page_layouts,alias:pl"`

	ID         uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	PageID     uuid.UUID      `bun:"page_id,notnull,type:uuid" json:"page_id"`
	Language   string         `bun:"language,notnull,default:'default'" json:"language"`
	LayoutJSON map[string]any `bun:"layout_json,type:jsonb,notnull" json:"layout_json"`
	Version    int            `bun:"version,notnull,default:1" json:"version"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Scope carries the caller's resolved tenant context into reads and writes.
// A nil TenantID scopes the caller to master data only; SuperAdmin bypasses
// tenant ownership checks.
type Scope struct {
	TenantID   *uuid.UUID
	SuperAdmin bool
}

// TenantScope builds a scope for a concrete tenant.
func TenantScope(tenantID uuid.UUID) Scope {
	return Scope{TenantID: &tenantID}
}

// CanAccess reports whether the scope may operate on data owned by tenantID.
func (s Scope) CanAccess(tenantID uuid.UUID) bool {
	if s.SuperAdmin {
		return true
	}
	return s.TenantID != nil && *s.TenantID == tenantID
}
