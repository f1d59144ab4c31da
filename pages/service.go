package pages

import (
	"context"

	"github.com/google/uuid"
)

// Service describes page registry capabilities. Reads resolve tenant
// shadowing (tenant rows hide master rows sharing a slug); writes reject
// master rows unless performed through a tenant-owned record.
type Service interface {
	Create(ctx context.Context, req CreatePageRequest) (*Page, error)
	Get(ctx context.Context, id uuid.UUID, scope Scope) (*Page, error)
	GetBySlug(ctx context.Context, slug string, scope Scope) (*Page, error)
	List(ctx context.Context, req ListPagesRequest) ([]*Page, error)
	Update(ctx context.Context, req UpdatePageRequest) (*Page, error)
	UpdateSlug(ctx context.Context, req UpdateSlugRequest) (*Page, error)
	Delete(ctx context.Context, req DeletePageRequest) error
	EnsureExists(ctx context.Context, req EnsurePageRequest) (*Page, error)
}

// LayoutService describes the versioned layout store.
type LayoutService interface {
	// Upsert writes the layout document for (page, language) atomically,
	// bumping the version by one or starting at one for a fresh pair. Writes
	// to the default language schedule background translation for the
	// tenant's additional configured languages.
	Upsert(ctx context.Context, req UpsertLayoutRequest) (*PageLayout, error)
	// Get returns the stored layout or, when no row exists yet, an empty
	// document at version one.
	Get(ctx context.Context, pageID uuid.UUID, language string) (*PageLayout, error)
	// GetBySlug resolves the page within the scope, then behaves like Get.
	GetBySlug(ctx context.Context, slug, language string, scope Scope) (*PageLayout, error)
}

// CreatePageRequest captures the payload required to create a page.
type CreatePageRequest struct {
	PageName        string
	Slug            string
	PageType        string
	Status          string
	TenantID        *uuid.UUID
	ThemeID         *string
	MetaTitle       *string
	MetaDescription *string
	Metadata        map[string]any
	Scope           Scope
}

// ListPagesRequest filters the merged master/tenant page catalog.
type ListPagesRequest struct {
	Scope    Scope
	ThemeID  string
	PageType string
}

// UpdatePageRequest captures the mutable metadata for an existing page.
type UpdatePageRequest struct {
	ID              uuid.UUID
	PageName        *string
	Status          *string
	MetaTitle       *string
	MetaDescription *string
	SEOIndex        *bool
	Metadata        map[string]any
	Scope           Scope
}

// UpdateSlugRequest moves a page to a new slug within its tenant scope.
type UpdateSlugRequest struct {
	PageID   uuid.UUID
	PageType string
	NewSlug  string
	OldSlug  string
	Scope    Scope
}

// DeletePageRequest removes a tenant-owned page and its layouts.
type DeletePageRequest struct {
	ID    uuid.UUID
	Scope Scope
}

// EnsurePageRequest resolves a page by a loosely typed external identifier,
// optionally restricted to a theme.
type EnsurePageRequest struct {
	PageID  any
	ThemeID string
	Scope   Scope
}

// UpsertLayoutRequest carries a layout write.
type UpsertLayoutRequest struct {
	PageID     any
	Language   string
	LayoutJSON map[string]any
	Scope      Scope
}
