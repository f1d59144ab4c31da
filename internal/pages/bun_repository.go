package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-pagelayout/internal/tenancy"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunPageRepository persists pages through bun with optional read caching.
type BunPageRepository struct {
	db   *bun.DB
	repo repository.Repository[*Page]
}

var _ Repository = (*BunPageRepository)(nil)

func NewBunPageRepository(db *bun.DB) *BunPageRepository {
	return NewBunPageRepositoryWithCache(db, nil, nil)
}

// NewBunPageRepositoryWithCache constructs a page repository backed by bun
// with optional caching.
func NewBunPageRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunPageRepository {
	base := NewPageRepository(db)
	return &BunPageRepository{
		db:   db,
		repo: wrapWithCache(base, cacheService, keySerializer),
	}
}

func (r *BunPageRepository) Create(ctx context.Context, record *Page) (*Page, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunPageRepository) GetByID(ctx context.Context, id uuid.UUID) (*Page, error) {
	result, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "page", id.String())
	}
	return result, nil
}

func (r *BunPageRepository) GetBySlug(ctx context.Context, slug string, scope Scope) (*Page, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.slug = ?", slug)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return tenancy.ApplyShadowOrder(tenancy.ApplyReadScope(q, scope), scope)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", slug)
	}
	if len(records) == 0 {
		return nil, &PageNotFoundError{Key: slug}
	}
	return records[0], nil
}

func (r *BunPageRepository) List(ctx context.Context, req ListPagesRequest) ([]*Page, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return tenancy.ApplyReadScope(q, req.Scope)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return applyCatalogFilters(q, req)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.slug ASC")
		}),
	)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunPageRepository) Update(ctx context.Context, record *Page) (*Page, error) {
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"page_name",
			"status",
			"seo_index",
			"meta_title",
			"meta_description",
			"metadata",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", record.ID.String())
	}
	return updated, nil
}

func (r *BunPageRepository) UpdateSlug(ctx context.Context, id uuid.UUID, slug string) (*Page, error) {
	updated, err := r.repo.Update(ctx, &Page{ID: id, Slug: slug, UpdatedAt: time.Now().UTC()},
		repository.UpdateByID(id.String()),
		repository.UpdateColumns("slug", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", id.String())
	}
	return updated, nil
}

// Delete removes the page and its layout rows in one transaction. The schema
// also declares ON DELETE CASCADE; the explicit delete keeps the behavior
// identical on databases where the pragma is off.
func (r *BunPageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if r.db == nil {
		return fmt.Errorf("page repository: database not configured")
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*PageLayout)(nil)).
			Where("?TableAlias.page_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete page layouts: %w", err)
		}

		result, err := tx.NewDelete().
			Model((*Page)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete page: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("page delete rows affected: %w", err)
		}
		if affected == 0 {
			return &PageNotFoundError{Key: id.String()}
		}
		return nil
	})
}

func (r *BunPageRepository) SlugExists(ctx context.Context, slug, pageType string, tenantID *uuid.UUID, excludeID uuid.UUID) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("page repository: database not configured")
	}
	q := r.db.NewSelect().
		Model((*Page)(nil)).
		Where("?TableAlias.slug = ?", slug).
		Where("?TableAlias.page_type = ?", pageType)
	if tenantID == nil {
		q = q.Where("?TableAlias.tenant_id IS NULL")
	} else {
		q = q.Where("?TableAlias.tenant_id = ?", *tenantID)
	}
	if excludeID != uuid.Nil {
		q = q.Where("?TableAlias.id != ?", excludeID)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func applyCatalogFilters(q *bun.SelectQuery, req ListPagesRequest) *bun.SelectQuery {
	if q == nil {
		return q
	}
	if pageType := strings.TrimSpace(req.PageType); pageType != "" {
		q = q.Where("?TableAlias.page_type = ?", pageType)
	}
	if themeID := strings.TrimSpace(req.ThemeID); themeID != "" {
		q = q.Where("?TableAlias.theme_id = ?", themeID)
	} else {
		// The default catalog holds hand-built pages: untagged rows plus
		// rows tagged custom. Theme-tagged pages only show up when their
		// theme is asked for.
		q = q.Where("(?TableAlias.theme_id IS NULL OR ?TableAlias.theme_id = ?)", ThemeCustom)
	}
	return q
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &PageNotFoundError{Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
