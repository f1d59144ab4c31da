package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-pagelayout/internal/jobs"
	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/internal/tenancy"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	plpages "github.com/goliatone/go-pagelayout/pages"
	slug "github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

// ThemeCatalog is the slice of the theme loader the registry needs: resolving
// filesystem pages that have no database row yet. Only the demo tenant reads
// through it.
type ThemeCatalog interface {
	PageByID(id uuid.UUID) (*Page, bool)
	PageBySlug(pageSlug string) (*Page, bool)
	Pages() []*Page
}

// ServiceOption customizes the page service.
type ServiceOption func(*service)

// WithLogger attaches a logger to the service.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithThemeCatalog wires the filesystem theme fallback.
func WithThemeCatalog(catalog ThemeCatalog) ServiceOption {
	return func(s *service) {
		s.themes = catalog
	}
}

// WithAuditRecorder wires the recorder that receives advisory events such as
// slug moves into reserved prefixes.
func WithAuditRecorder(recorder jobs.AuditRecorder) ServiceOption {
	return func(s *service) {
		s.audit = recorder
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	repo   Repository
	themes ThemeCatalog
	audit  jobs.AuditRecorder
	logger interfaces.Logger
	now    func() time.Time
}

var _ Service = (*service)(nil)

// NewService builds the page registry service.
func NewService(repo Repository, opts ...ServiceOption) Service {
	svc := &service{
		repo:   repo,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) Create(ctx context.Context, req CreatePageRequest) (*Page, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	tenantID := req.TenantID
	if tenantID == nil {
		tenantID = req.Scope.TenantID
	}
	if tenantID == nil && !req.Scope.SuperAdmin {
		// Master rows are seeded, never created through the registry.
		return nil, ErrTenantRequired
	}
	if tenantID != nil && !req.Scope.CanAccess(*tenantID) {
		return nil, ErrTenantForbidden
	}

	normalizedSlug, err := normalizeSlug(req.Slug)
	if err != nil {
		return nil, err
	}
	pageType := defaultString(req.PageType, TypePage)
	status, err := normalizeStatus(defaultString(req.Status, StatusDraft))
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.SlugExists(ctx, normalizedSlug, pageType, tenantID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &SlugConflictError{Slug: normalizedSlug, TenantID: tenantID}
	}

	themeID := req.ThemeID
	if themeID == nil {
		custom := ThemeCustom
		themeID = &custom
	}
	now := s.now().UTC()
	record := &Page{
		ID:              uuid.New(),
		PageName:        strings.TrimSpace(req.PageName),
		Slug:            normalizedSlug,
		PageType:        pageType,
		Status:          status,
		TenantID:        tenantID,
		ThemeID:         themeID,
		SEOIndex:        defaultSEOIndex(pageType),
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		Metadata:        req.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	s.logger.Info("page created", "page_id", created.ID.String(), "slug", created.Slug)
	s.recordAudit(ctx, created, "create", map[string]any{
		"slug":      created.Slug,
		"page_type": created.PageType,
	})
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, scope Scope) (*Page, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPageNotFound) && s.useThemeFallback(scope) {
			if page, ok := s.themes.PageByID(id); ok {
				return page, nil
			}
		}
		return nil, err
	}
	if !scopeCanRead(record, scope) {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	return record, nil
}

func (s *service) GetBySlug(ctx context.Context, pageSlug string, scope Scope) (*Page, error) {
	normalized := strings.TrimSpace(pageSlug)
	record, err := s.repo.GetBySlug(ctx, normalized, scope)
	if err != nil {
		if errors.Is(err, ErrPageNotFound) && s.useThemeFallback(scope) {
			if page, ok := s.themes.PageBySlug(normalized); ok {
				return page, nil
			}
		}
		return nil, err
	}
	return record, nil
}

// List returns the merged catalog for the scope: tenant rows shadow master
// rows sharing a key. The demo tenant additionally sees filesystem theme pages
// the database does not hold yet.
func (s *service) List(ctx context.Context, req ListPagesRequest) ([]*Page, error) {
	records, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	merged := tenancy.ShadowMerge(records, req.Scope)

	if s.useThemeFallback(req.Scope) {
		before := len(merged)
		merged = appendFilesystemPages(merged, s.themes.Pages(), req)
		s.syncThemePages(ctx, merged[before:], req.Scope)
	}
	return merged, nil
}

// syncThemePages copies filesystem theme pages into the registry so later
// reads resolve from the database. Each page is guarded by a slug existence
// check, keeping repeated calls idempotent. Failures are logged and never
// surface to the read path.
func (s *service) syncThemePages(ctx context.Context, fsPages []*Page, scope Scope) {
	if scope.TenantID == nil {
		return
	}
	for _, page := range fsPages {
		if page == nil || !page.FromFilesystem {
			continue
		}
		exists, err := s.repo.SlugExists(ctx, page.Slug, page.PageType, scope.TenantID, uuid.Nil)
		if err != nil {
			s.logger.Warn("theme page sync check failed", "slug", page.Slug, "error", err)
			continue
		}
		if exists {
			continue
		}
		record := *page
		record.FromFilesystem = false
		record.TenantID = scope.TenantID
		now := s.now().UTC()
		record.CreatedAt = now
		record.UpdatedAt = now
		if _, err := s.repo.Create(ctx, &record); err != nil {
			s.logger.Warn("theme page sync failed", "slug", page.Slug, "error", err)
			continue
		}
		s.logger.Info("theme page synced", "slug", record.Slug, "page_id", record.ID.String())
	}
}

func (s *service) Update(ctx context.Context, req UpdatePageRequest) (*Page, error) {
	record, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := tenancy.AssertWritable(record, req.Scope, "page.update"); err != nil {
		return nil, err
	}

	if req.PageName != nil {
		if strings.TrimSpace(*req.PageName) == "" {
			return nil, ErrPageNameRequired
		}
		record.PageName = strings.TrimSpace(*req.PageName)
	}
	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		record.Status = status
	}
	if req.SEOIndex != nil {
		record.SEOIndex = *req.SEOIndex
	}
	if req.MetaTitle != nil {
		record.MetaTitle = req.MetaTitle
	}
	if req.MetaDescription != nil {
		record.MetaDescription = req.MetaDescription
	}
	if req.Metadata != nil {
		record.Metadata = req.Metadata
	}
	record.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, updated, "update", nil)
	return updated, nil
}

func (s *service) UpdateSlug(ctx context.Context, req UpdateSlugRequest) (*Page, error) {
	record, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	if err := tenancy.AssertWritable(record, req.Scope, "page.update_slug"); err != nil {
		return nil, err
	}
	if req.PageType != "" && record.PageType != req.PageType {
		return nil, fmt.Errorf("%w: have %q, want %q", ErrPageTypeMismatch, record.PageType, req.PageType)
	}
	if req.OldSlug != "" && record.Slug != strings.TrimPrefix(strings.TrimSpace(req.OldSlug), "/") {
		return nil, &PageNotFoundError{Key: req.OldSlug}
	}

	newSlug, err := normalizeSlug(req.NewSlug)
	if err != nil {
		return nil, err
	}
	if newSlug == record.Slug {
		return record, nil
	}

	exists, err := s.repo.SlugExists(ctx, newSlug, record.PageType, record.TenantID, record.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &SlugConflictError{Slug: newSlug, TenantID: record.TenantID}
	}

	updated, err := s.repo.UpdateSlug(ctx, record.ID, newSlug)
	if err != nil {
		return nil, err
	}
	s.logger.Info("page slug updated",
		"page_id", record.ID.String(),
		"old_slug", record.Slug,
		"new_slug", newSlug,
	)
	s.recordAudit(ctx, record, "slug_changed", map[string]any{
		"old_slug": record.Slug,
		"new_slug": newSlug,
	})
	s.recordSlugAdvisories(ctx, record, newSlug)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, req DeletePageRequest) error {
	record, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if err := tenancy.AssertWritable(record, req.Scope, "page.delete"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, req.ID); err != nil {
		return err
	}
	s.logger.Info("page deleted", "page_id", req.ID.String(), "slug", record.Slug)
	s.recordAudit(ctx, record, "delete", map[string]any{"slug": record.Slug})
	return nil
}

// EnsureExists resolves a loosely typed identifier to a page, falling back to
// the filesystem theme catalog. A filesystem hit is promoted into the database
// so later layout writes have a row to attach to; promotion failures degrade
// to the in-memory record rather than failing the lookup.
func (s *service) EnsureExists(ctx context.Context, req EnsurePageRequest) (*Page, error) {
	id, err := plpages.NormalizeID(req.PageID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(ctx, id)
	if err == nil {
		if !scopeCanRead(record, req.Scope) {
			return nil, &PageNotFoundError{Key: id.String()}
		}
		return record, nil
	}
	if !errors.Is(err, ErrPageNotFound) {
		return nil, err
	}

	if s.themes == nil {
		return nil, err
	}
	page, ok := s.themes.PageByID(id)
	if !ok {
		return nil, err
	}
	if req.ThemeID != "" && page.ThemeID != nil && *page.ThemeID != req.ThemeID {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	return s.promoteFilesystemPage(ctx, page, req.Scope), nil
}

// promoteFilesystemPage writes a theme page into the registry under the
// caller's tenant. Races with a concurrent promotion resolve by re-reading.
func (s *service) promoteFilesystemPage(ctx context.Context, page *Page, scope Scope) *Page {
	record := *page
	record.FromFilesystem = false
	record.TenantID = scope.TenantID
	now := s.now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	created, err := s.repo.Create(ctx, &record)
	if err != nil {
		if existing, getErr := s.repo.GetByID(ctx, page.ID); getErr == nil {
			return existing
		}
		s.logger.Warn("theme page promotion failed",
			"page_id", page.ID.String(),
			"error", err,
		)
		return page
	}
	s.logger.Info("theme page promoted", "page_id", created.ID.String(), "slug", created.Slug)
	return created
}

// recordAudit emits a page lifecycle event. Failures are logged, never
// surfaced: audit is observability, not part of the write.
func (s *service) recordAudit(ctx context.Context, record *Page, action string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	event := jobs.AuditEvent{
		EntityType: "page",
		EntityID:   record.ID.String(),
		Action:     action,
		OccurredAt: s.now().UTC(),
		Metadata:   metadata,
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("audit record failed", "page_id", record.ID.String(), "action", action, "error", err)
	}
}

// recordSlugAdvisories emits audit events for slug moves that land in
// prefixes served by other subsystems. The move itself is allowed.
func (s *service) recordSlugAdvisories(ctx context.Context, record *Page, newSlug string) {
	if s.audit == nil || !strings.HasPrefix(newSlug, "blog") {
		return
	}
	event := jobs.AuditEvent{
		EntityType: "page",
		EntityID:   record.ID.String(),
		Action:     "slug_moved_into_blog_prefix",
		OccurredAt: s.now().UTC(),
		Metadata: map[string]any{
			"old_slug": record.Slug,
			"new_slug": newSlug,
		},
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("audit record failed", "page_id", record.ID.String(), "error", err)
	}
}

func (s *service) useThemeFallback(scope Scope) bool {
	return s.themes != nil && tenancy.IsDemoTenant(scope)
}

func appendFilesystemPages(records []*Page, fsPages []*Page, req ListPagesRequest) []*Page {
	type key struct {
		slug     string
		pageType string
	}
	seen := make(map[key]bool, len(records))
	for _, record := range records {
		seen[key{record.Slug, record.PageType}] = true
	}
	for _, page := range fsPages {
		if page == nil || seen[key{page.Slug, page.PageType}] {
			continue
		}
		if req.PageType != "" && page.PageType != req.PageType {
			continue
		}
		if req.ThemeID != "" && page.ThemeID != nil && *page.ThemeID != req.ThemeID {
			continue
		}
		records = append(records, page)
	}
	return records
}

func scopeCanRead(record *Page, scope Scope) bool {
	if record == nil {
		return false
	}
	if record.TenantID == nil || scope.SuperAdmin {
		return true
	}
	return scope.TenantID != nil && *scope.TenantID == *record.TenantID
}

func validateCreateRequest(req CreatePageRequest) error {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.PageName, validation.Required.Error(ErrPageNameRequired.Error())),
		validation.Field(&req.Slug, validation.Required.Error(ErrSlugRequired.Error())),
	)
	if err != nil {
		if strings.TrimSpace(req.PageName) == "" {
			return ErrPageNameRequired
		}
		return ErrSlugRequired
	}
	return nil
}

// normalizeSlug strips the leading slash routing layers prepend and runs each
// path segment through the shared slug rules, so nested slugs like blog/news
// survive while each segment stays URL-safe.
func normalizeSlug(raw string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", ErrSlugRequired
	}
	segments := strings.Split(trimmed, "/")
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		normalized, err := slug.Normalize(segment)
		if err != nil || normalized == "" {
			return "", fmt.Errorf("%w: %q", ErrSlugInvalid, raw)
		}
		out = append(out, normalized)
	}
	return strings.Join(out, "/"), nil
}

func normalizeStatus(raw string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(raw))
	switch status {
	case StatusDraft, StatusPublished:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrStatusUnsupported, raw)
	}
}

// defaultSEOIndex keeps legal pages out of search indexes unless explicitly
// opted in later.
func defaultSEOIndex(pageType string) bool {
	return pageType != TypeLegal
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
