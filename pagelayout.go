package pagelayout

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-pagelayout/internal/jobs"
	"github.com/goliatone/go-pagelayout/internal/layouts"
	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/internal/logging/gologger"
	pagesvc "github.com/goliatone/go-pagelayout/internal/pages"
	"github.com/goliatone/go-pagelayout/internal/scheduler"
	"github.com/goliatone/go-pagelayout/internal/settings"
	"github.com/goliatone/go-pagelayout/internal/themefs"
	"github.com/goliatone/go-pagelayout/internal/translate"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	plpages "github.com/goliatone/go-pagelayout/pages"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Re-exported contract types so hosts can depend on the root package alone.
type (
	PageService   = plpages.Service
	LayoutService = plpages.LayoutService
	Page          = plpages.Page
	PageLayout    = plpages.PageLayout
	Scope         = plpages.Scope

	CreatePageRequest   = plpages.CreatePageRequest
	ListPagesRequest    = plpages.ListPagesRequest
	UpdatePageRequest   = plpages.UpdatePageRequest
	UpdateSlugRequest   = plpages.UpdateSlugRequest
	DeletePageRequest   = plpages.DeletePageRequest
	EnsurePageRequest   = plpages.EnsurePageRequest
	UpsertLayoutRequest = plpages.UpsertLayoutRequest

	SettingsRepository = settings.Repository
	AuditEvent         = jobs.AuditEvent
	AuditRecorder      = jobs.AuditRecorder
	Scheduler          = interfaces.Scheduler
	Logger             = interfaces.Logger
	LoggerProvider     = interfaces.LoggerProvider
	ThemeRegistry      = themefs.Registry
)

// TenantScope builds a scope bound to one tenant.
func TenantScope(tenantID uuid.UUID) Scope {
	return plpages.TenantScope(tenantID)
}

// SuperAdminScope builds a scope that bypasses tenant ownership checks.
func SuperAdminScope() Scope {
	return Scope{SuperAdmin: true}
}

// Module is the composition root: it wires the page registry, the layout
// store, the theme catalog, tenant settings, and the translation worker
// behind one constructor so hosts embed the subsystem with a single call.
type Module struct {
	cfg      Config
	db       *bun.DB
	provider interfaces.LoggerProvider
	logger   interfaces.Logger

	pages     plpages.Service
	layouts   plpages.LayoutService
	themes    *themefs.Registry
	settings  settings.Repository
	scheduler  interfaces.Scheduler
	worker     *jobs.Worker
	audit      jobs.AuditRecorder
	translator jobs.DocumentTranslator

	stop context.CancelFunc
	done chan struct{}
}

type deps struct {
	db         *bun.DB
	provider   interfaces.LoggerProvider
	scheduler  interfaces.Scheduler
	themesFS   fs.FS
	translator jobs.DocumentTranslator
	audit      jobs.AuditRecorder
	now        func() time.Time
}

// Option overrides a dependency the module would otherwise construct itself.
type Option func(*deps)

// WithDB backs every repository with the supplied bun database. Without it
// the module runs on in-memory repositories, which suits tests and previews.
func WithDB(db *bun.DB) Option {
	return func(d *deps) {
		d.db = db
	}
}

// WithLoggerProvider plugs the host's logger in place of the one built from
// Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(d *deps) {
		d.provider = provider
	}
}

// WithScheduler replaces the in-process scheduler, typically with a durable
// queue owned by the host.
func WithScheduler(s interfaces.Scheduler) Option {
	return func(d *deps) {
		d.scheduler = s
	}
}

// WithThemesFS loads filesystem themes from the supplied tree. Each top-level
// directory holding a theme.json becomes one theme.
func WithThemesFS(fsys fs.FS) Option {
	return func(d *deps) {
		d.themesFS = fsys
	}
}

// WithTranslator replaces the HTTP translation pipeline, e.g. with a stub in
// tests or a different provider in production.
func WithTranslator(t jobs.DocumentTranslator) Option {
	return func(d *deps) {
		d.translator = t
	}
}

// WithAuditRecorder replaces the in-memory audit trail.
func WithAuditRecorder(recorder jobs.AuditRecorder) Option {
	return func(d *deps) {
		d.audit = recorder
	}
}

// WithClock overrides the time source for every component, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *deps) {
		d.now = now
	}
}

// New validates the configuration and wires the full subsystem. Every
// dependency not supplied through an Option gets a sensible default: an
// in-process scheduler, in-memory repositories when no database is given,
// and the translation pipeline built from Config.Translation.
func New(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := deps{now: time.Now}
	for _, opt := range opts {
		opt(&d)
	}

	provider := d.provider
	if provider == nil {
		var err error
		provider, err = buildLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
	}

	m := &Module{
		cfg:      cfg,
		db:       d.db,
		provider: provider,
		logger:   logging.ModuleLogger(provider, ""),
		audit:    d.audit,
	}
	if m.audit == nil {
		m.audit = jobs.NewInMemoryAuditRecorder()
	}

	m.scheduler = d.scheduler
	if m.scheduler == nil {
		m.scheduler = scheduler.NewInMemory(scheduler.WithClock(d.now))
	}

	if cfg.Themes.Enabled {
		m.themes = themefs.NewRegistry(themefs.WithLogger(logging.ThemesLogger(provider)))
		if d.themesFS != nil {
			if err := m.themes.Load(d.themesFS); err != nil {
				return nil, fmt.Errorf("pagelayout: load themes: %w", err)
			}
		}
		if cfg.Themes.Builtin {
			m.themes.Register(themefs.BuiltinTheme())
		}
	} else if d.themesFS != nil {
		return nil, errors.New("pagelayout: themes filesystem supplied but themes are disabled")
	}

	var (
		pagesRepo   pagesvc.Repository
		layoutsRepo layouts.Repository
	)
	if d.db != nil {
		cacheService, keySerializer := buildCache(cfg.Cache)
		pagesRepo = pagesvc.NewBunPageRepositoryWithCache(d.db, cacheService, keySerializer)
		layoutsRepo = layouts.NewBunRepository(d.db)
		m.settings = settings.NewBunRepository(d.db)
	} else {
		memPages := pagesvc.NewMemoryPageRepository()
		memLayouts := layouts.NewMemoryRepository()
		memPages.AttachLayoutPurger(memLayouts)
		pagesRepo = memPages
		layoutsRepo = memLayouts
		m.settings = settings.NewMemoryRepository()
	}
	m.settings = jobs.AuditedSettings(m.settings, m.audit, d.now)

	pageOpts := []pagesvc.ServiceOption{
		pagesvc.WithLogger(logging.PagesLogger(provider)),
		pagesvc.WithAuditRecorder(m.audit),
		pagesvc.WithClock(d.now),
	}
	if m.themes != nil {
		pageOpts = append(pageOpts, pagesvc.WithThemeCatalog(m.themes))
	}
	m.pages = pagesvc.NewService(pagesRepo, pageOpts...)

	m.layouts = layouts.NewService(layoutsRepo, pageServiceResolver{svc: m.pages},
		layouts.WithLogger(logging.LayoutsLogger(provider)),
		layouts.WithScheduler(m.scheduler),
		layouts.WithClock(d.now),
	)

	translator := d.translator
	if translator == nil && cfg.Translation.Enabled {
		client, err := translate.NewHTTPClient(cfg.Translation.Client,
			translate.WithClientLogger(logging.TranslateLogger(provider)))
		if err != nil {
			return nil, fmt.Errorf("pagelayout: translation client: %w", err)
		}
		translator = translate.NewPipeline(client, cfg.Translation.Client,
			translate.WithPipelineLogger(logging.TranslateLogger(provider)))
	}

	m.translator = translator
	if translator != nil {
		m.worker = jobs.NewWorker(m.scheduler, layoutsRepo, m.settings, translator,
			jobs.WithAuditRecorder(m.audit),
			jobs.WithLogger(logging.JobsLogger(provider)),
			jobs.WithBatchSize(cfg.Worker.BatchSize),
			jobs.WithClock(d.now),
		)
	}

	return m, nil
}

// buildCache constructs the repository read cache when enabled. Cache build
// failures degrade to uncached repositories rather than failing the module.
func buildCache(cfg CacheConfig) (repocache.CacheService, repocache.KeySerializer) {
	if !cfg.Enabled {
		return nil, nil
	}
	cacheCfg := repocache.DefaultConfig()
	if cfg.DefaultTTL > 0 {
		cacheCfg.TTL = cfg.DefaultTTL
	}
	service, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		return nil, nil
	}
	return service, repocache.NewDefaultKeySerializer()
}

func buildLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Provider), "noop") {
		return logging.NoOpProvider(), nil
	}
	return gologger.NewProvider(gologger.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
	})
}

// Pages returns the tenant-scoped page registry.
func (m *Module) Pages() PageService {
	if m == nil {
		return nil
	}
	return m.pages
}

// Layouts returns the versioned layout store.
func (m *Module) Layouts() LayoutService {
	if m == nil {
		return nil
	}
	return m.layouts
}

// Themes returns the filesystem theme catalog, nil when themes are disabled.
func (m *Module) Themes() *ThemeRegistry {
	if m == nil {
		return nil
	}
	return m.themes
}

// Settings returns the tenant settings repository.
func (m *Module) Settings() SettingsRepository {
	if m == nil {
		return nil
	}
	return m.settings
}

// Scheduler returns the job scheduler in use.
func (m *Module) Scheduler() Scheduler {
	if m == nil {
		return nil
	}
	return m.scheduler
}

// Worker returns the translation worker, nil when no translator is
// configured.
func (m *Module) Worker() *jobs.Worker {
	if m == nil {
		return nil
	}
	return m.worker
}

// Translator returns the document translator in use, nil when translation is
// disabled and no override was supplied.
func (m *Module) Translator() jobs.DocumentTranslator {
	if m == nil {
		return nil
	}
	return m.translator
}

// Audit returns the audit recorder shared by the registry and the worker.
func (m *Module) Audit() AuditRecorder {
	if m == nil {
		return nil
	}
	return m.audit
}

// Start launches the background worker poll loop. It is a no-op when no
// translator is configured or the worker is already running.
func (m *Module) Start(ctx context.Context) {
	if m == nil || m.worker == nil || m.stop != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.stop = cancel
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		if err := m.worker.Run(runCtx, m.cfg.Worker.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("worker stopped", "error", err)
		}
	}()
}

// Stop halts the background worker and waits for the current pass to finish.
func (m *Module) Stop() {
	if m == nil || m.stop == nil {
		return
	}
	m.stop()
	<-m.done
	m.stop = nil
	m.done = nil
}

// pageServiceResolver adapts the page service to the narrower lookup contract
// the layout store needs. Lookups by ID run unscoped: the layout service
// enforces write access itself from the caller's scope.
type pageServiceResolver struct {
	svc plpages.Service
}

func (r pageServiceResolver) GetByID(ctx context.Context, id uuid.UUID) (*plpages.Page, error) {
	return r.svc.Get(ctx, id, Scope{SuperAdmin: true})
}

func (r pageServiceResolver) GetBySlug(ctx context.Context, slug string, scope plpages.Scope) (*plpages.Page, error) {
	return r.svc.GetBySlug(ctx, slug, scope)
}
