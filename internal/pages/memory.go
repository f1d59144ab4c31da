package pages

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LayoutPurger lets the memory page repository cascade deletes into a layout
// store the same way the bun repository's transaction does.
type LayoutPurger interface {
	DeleteByPage(ctx context.Context, pageID uuid.UUID) error
}

// MemoryPageRepository keeps pages in process memory for tests and mock mode.
type MemoryPageRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Page
	layouts LayoutPurger
}

var _ Repository = (*MemoryPageRepository)(nil)

// NewMemoryPageRepository constructs an empty in-memory page repository.
func NewMemoryPageRepository() *MemoryPageRepository {
	return &MemoryPageRepository{records: make(map[uuid.UUID]*Page)}
}

// AttachLayoutPurger wires the layout store the repository cascades into on
// Delete.
func (r *MemoryPageRepository) AttachLayoutPurger(purger LayoutPurger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts = purger
}

func (r *MemoryPageRepository) Create(_ context.Context, record *Page) (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := clonePage(record)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}
	r.records[stored.ID] = stored
	return clonePage(stored), nil
}

func (r *MemoryPageRepository) GetByID(_ context.Context, id uuid.UUID) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	return clonePage(record), nil
}

func (r *MemoryPageRepository) GetBySlug(_ context.Context, slug string, scope Scope) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var master *Page
	for _, record := range r.records {
		if record.Slug != slug || !visibleTo(record, scope) {
			continue
		}
		if record.TenantID != nil {
			return clonePage(record), nil
		}
		master = record
	}
	if master != nil {
		return clonePage(master), nil
	}
	return nil, &PageNotFoundError{Key: slug}
}

func (r *MemoryPageRepository) List(_ context.Context, req ListPagesRequest) ([]*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Page{}
	for _, record := range r.records {
		if !visibleTo(record, req.Scope) {
			continue
		}
		if req.PageType != "" && record.PageType != req.PageType {
			continue
		}
		if themeID := strings.TrimSpace(req.ThemeID); themeID != "" {
			if record.ThemeID == nil || *record.ThemeID != themeID {
				continue
			}
		} else if record.ThemeID != nil && *record.ThemeID != ThemeCustom {
			continue
		}
		out = append(out, clonePage(record))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *MemoryPageRepository) Update(_ context.Context, record *Page) (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[record.ID]
	if !ok {
		return nil, &PageNotFoundError{Key: record.ID.String()}
	}
	updated := clonePage(existing)
	updated.PageName = record.PageName
	updated.Status = record.Status
	updated.SEOIndex = record.SEOIndex
	updated.MetaTitle = record.MetaTitle
	updated.MetaDescription = record.MetaDescription
	updated.Metadata = record.Metadata
	updated.UpdatedAt = time.Now().UTC()
	r.records[record.ID] = updated
	return clonePage(updated), nil
}

func (r *MemoryPageRepository) UpdateSlug(_ context.Context, id uuid.UUID, slug string) (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[id]
	if !ok {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	updated := clonePage(existing)
	updated.Slug = slug
	updated.UpdatedAt = time.Now().UTC()
	r.records[id] = updated
	return clonePage(updated), nil
}

func (r *MemoryPageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	purger := r.layouts
	_, ok := r.records[id]
	if ok {
		delete(r.records, id)
	}
	r.mu.Unlock()

	if !ok {
		return &PageNotFoundError{Key: id.String()}
	}
	if purger != nil {
		return purger.DeleteByPage(ctx, id)
	}
	return nil
}

func (r *MemoryPageRepository) SlugExists(_ context.Context, slug, pageType string, tenantID *uuid.UUID, excludeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.records {
		if record.ID == excludeID {
			continue
		}
		if record.Slug != slug || record.PageType != pageType {
			continue
		}
		if tenantID == nil && record.TenantID == nil {
			return true, nil
		}
		if tenantID != nil && record.TenantID != nil && *tenantID == *record.TenantID {
			return true, nil
		}
	}
	return false, nil
}

func visibleTo(record *Page, scope Scope) bool {
	if record == nil {
		return false
	}
	if record.TenantID == nil {
		return true
	}
	if scope.SuperAdmin {
		return true
	}
	return scope.TenantID != nil && *scope.TenantID == *record.TenantID
}

func clonePage(record *Page) *Page {
	if record == nil {
		return nil
	}
	out := *record
	if record.TenantID != nil {
		tenantID := *record.TenantID
		out.TenantID = &tenantID
	}
	if record.ThemeID != nil {
		themeID := *record.ThemeID
		out.ThemeID = &themeID
	}
	if record.Metadata != nil {
		metadata := make(map[string]any, len(record.Metadata))
		for k, v := range record.Metadata {
			metadata[k] = v
		}
		out.Metadata = metadata
	}
	out.Layouts = nil
	return &out
}
