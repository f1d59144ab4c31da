package pages

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the persistence contract for the page registry. Reads are
// scope-aware: they surface the tenant's own rows plus the shared master rows,
// with tenant rows shadowing master rows that share (slug, page_type).
type Repository interface {
	Create(ctx context.Context, record *Page) (*Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	GetBySlug(ctx context.Context, slug string, scope Scope) (*Page, error)
	List(ctx context.Context, req ListPagesRequest) ([]*Page, error)
	Update(ctx context.Context, record *Page) (*Page, error)
	UpdateSlug(ctx context.Context, id uuid.UUID, slug string) (*Page, error)
	// Delete removes the page and, in the same transaction, every layout row
	// keyed to it.
	Delete(ctx context.Context, id uuid.UUID) error
	// SlugExists reports whether another page in the same tenant scope already
	// claims (slug, page_type). Master rows do not count: a tenant row sharing
	// a master slug is a shadow, not a conflict.
	SlugExists(ctx context.Context, slug, pageType string, tenantID *uuid.UUID, excludeID uuid.UUID) (bool, error)
}

// NewPageRepository builds the generic bun repository for Page records.
func NewPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.Slug
		},
	})
}
