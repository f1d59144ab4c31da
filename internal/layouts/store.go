package layouts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/internal/tenancy"
	"github.com/goliatone/go-pagelayout/pages"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	"github.com/google/uuid"
)

// TranslateJobType identifies the background job that fans a default-language
// layout out to the tenant's configured languages.
const TranslateJobType = "pagelayout.translate"

// TranslateJobKey derives the idempotent scheduler key for a page's
// translation fan-out. Re-enqueueing the same page replaces the pending job.
func TranslateJobKey(pageID uuid.UUID) string {
	return TranslateJobType + ":" + pageID.String()
}

// Repository persists layout rows. Upsert must be atomic: a fresh
// (page, language) pair starts at version one, an existing pair has its
// version incremented by exactly one, concurrent writers included.
type Repository interface {
	Upsert(ctx context.Context, record *pages.PageLayout) (*pages.PageLayout, error)
	Get(ctx context.Context, pageID uuid.UUID, language string) (*pages.PageLayout, error)
	ListByPage(ctx context.Context, pageID uuid.UUID) ([]*pages.PageLayout, error)
}

// PageResolver is the slice of the page registry the layout store needs:
// ownership checks on writes and slug resolution on reads.
type PageResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*pages.Page, error)
	GetBySlug(ctx context.Context, slug string, scope pages.Scope) (*pages.Page, error)
}

// Option customizes a layout Service.
type Option func(*Service)

// WithLogger attaches a logger to the service.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScheduler wires the scheduler used to enqueue translation fan-out after
// default-language writes. Without one the service skips scheduling.
func WithScheduler(scheduler interfaces.Scheduler) Option {
	return func(s *Service) {
		s.scheduler = scheduler
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service implements pages.LayoutService on top of a Repository.
type Service struct {
	repo      Repository
	resolver  PageResolver
	scheduler interfaces.Scheduler
	logger    interfaces.Logger
	now       func() time.Time
}

var _ pages.LayoutService = (*Service)(nil)

// NewService builds the layout store service.
func NewService(repo Repository, resolver PageResolver, opts ...Option) *Service {
	svc := &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Upsert normalizes and validates the document, checks write access against
// the owning page, then performs the atomic versioned write. Writes to the
// default language enqueue the translation fan-out job for the page.
func (s *Service) Upsert(ctx context.Context, req pages.UpsertLayoutRequest) (*pages.PageLayout, error) {
	pageID, err := pages.NormalizeID(req.PageID)
	if err != nil {
		return nil, err
	}

	language := normalizeLanguage(req.Language)
	document, err := NormalizeDocument(req.LayoutJSON)
	if err != nil {
		return nil, err
	}

	if s.resolver != nil {
		page, err := s.resolver.GetByID(ctx, pageID)
		if err != nil && !errors.Is(err, pages.ErrPageNotFound) {
			return nil, err
		}
		if page != nil && !page.FromFilesystem {
			if err := tenancy.AssertWritable(page, req.Scope, "layout.upsert"); err != nil {
				return nil, err
			}
		}
	}

	stored, err := s.repo.Upsert(ctx, &pages.PageLayout{
		PageID:     pageID,
		Language:   language,
		LayoutJSON: document,
		UpdatedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("layout upserted",
		"page_id", pageID.String(),
		"language", language,
		"version", stored.Version,
	)

	if language == pages.LanguageDefault {
		s.enqueueTranslation(ctx, pageID, req.Scope)
	}
	return stored, nil
}

// Get returns the stored layout, or a synthesized empty document at version
// one when no row exists for the pair yet.
func (s *Service) Get(ctx context.Context, pageID uuid.UUID, language string) (*pages.PageLayout, error) {
	language = normalizeLanguage(language)
	record, err := s.repo.Get(ctx, pageID, language)
	if err != nil {
		if errors.Is(err, pages.ErrLayoutNotFound) {
			return &pages.PageLayout{
				PageID:     pageID,
				Language:   language,
				LayoutJSON: EmptyDocument(),
				Version:    1,
			}, nil
		}
		return nil, err
	}
	return record, nil
}

// GetBySlug resolves the page within the scope and returns its layout.
func (s *Service) GetBySlug(ctx context.Context, slug, language string, scope pages.Scope) (*pages.PageLayout, error) {
	if s.resolver == nil {
		return nil, &pages.PageNotFoundError{Key: slug}
	}
	page, err := s.resolver.GetBySlug(ctx, slug, scope)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, page.ID, language)
}

// enqueueTranslation schedules the fan-out job. Scheduling failures are logged
// and swallowed so the layout write itself never fails on queue trouble.
func (s *Service) enqueueTranslation(ctx context.Context, pageID uuid.UUID, scope pages.Scope) {
	if s.scheduler == nil || scope.TenantID == nil {
		return
	}
	spec := interfaces.JobSpec{
		Key:   TranslateJobKey(pageID),
		Type:  TranslateJobType,
		RunAt: s.now(),
		Payload: map[string]any{
			"page_id":   pageID.String(),
			"tenant_id": scope.TenantID.String(),
		},
		MaxAttempts: 3,
	}
	if _, err := s.scheduler.Enqueue(ctx, spec); err != nil {
		s.logger.Error("failed to enqueue translation job",
			"page_id", pageID.String(),
			"error", err,
		)
		return
	}
	s.logger.Info("translation job enqueued", "page_id", pageID.String())
}

func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return pages.LanguageDefault
	}
	return language
}
