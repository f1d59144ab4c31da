package layouts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-pagelayout/internal/identity"
	"github.com/goliatone/go-pagelayout/pages"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	"github.com/google/uuid"
)

type fakeResolver struct {
	pages map[uuid.UUID]*pages.Page
}

func (f *fakeResolver) GetByID(_ context.Context, id uuid.UUID) (*pages.Page, error) {
	if page, ok := f.pages[id]; ok {
		return page, nil
	}
	return nil, &pages.PageNotFoundError{Key: id.String()}
}

func (f *fakeResolver) GetBySlug(_ context.Context, slug string, scope pages.Scope) (*pages.Page, error) {
	for _, page := range f.pages {
		if page.Slug != slug {
			continue
		}
		if page.TenantID == nil {
			return page, nil
		}
		if scope.TenantID != nil && *page.TenantID == *scope.TenantID {
			return page, nil
		}
	}
	return nil, &pages.PageNotFoundError{Key: slug}
}

type fakeScheduler struct {
	mu    sync.Mutex
	specs []interfaces.JobSpec
	fail  error
}

func (f *fakeScheduler) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	f.specs = append(f.specs, spec)
	return &interfaces.Job{JobSpec: spec, ID: spec.Key, Status: interfaces.JobStatusPending}, nil
}

func (f *fakeScheduler) Cancel(context.Context, string) error      { return nil }
func (f *fakeScheduler) CancelByKey(context.Context, string) error { return nil }
func (f *fakeScheduler) Get(context.Context, string) (*interfaces.Job, error) {
	return nil, interfaces.ErrJobNotFound
}
func (f *fakeScheduler) GetByKey(context.Context, string) (*interfaces.Job, error) {
	return nil, interfaces.ErrJobNotFound
}
func (f *fakeScheduler) ListDue(context.Context, time.Time, int) ([]*interfaces.Job, error) {
	return nil, nil
}
func (f *fakeScheduler) MarkDone(context.Context, string) error          { return nil }
func (f *fakeScheduler) MarkFailed(context.Context, string, error) error { return nil }

func tenantPage(tenantID uuid.UUID) *pages.Page {
	return &pages.Page{
		ID:       uuid.New(),
		PageName: "About",
		Slug:     "about",
		PageType: pages.TypePage,
		TenantID: &tenantID,
	}
}

func sampleDocument(heading string) map[string]any {
	return map[string]any{
		"components": []any{
			map[string]any{
				"id":    "hero-1",
				"type":  "hero",
				"props": map[string]any{"heading": heading},
			},
		},
	}
}

func TestUpsertVersionSemantics(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	page := tenantPage(tenantID)
	svc := NewService(NewMemoryRepository(), &fakeResolver{pages: map[uuid.UUID]*pages.Page{page.ID: page}})

	first, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
		PageID:     page.ID,
		Language:   pages.LanguageDefault,
		LayoutJSON: sampleDocument("Welcome"),
		Scope:      pages.TenantScope(tenantID),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("expected fresh pair at version 1, got %d", first.Version)
	}

	// Re-sending the identical document still bumps the version.
	for i := 0; i < 2; i++ {
		latest, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
			PageID:     page.ID,
			Language:   pages.LanguageDefault,
			LayoutJSON: sampleDocument("Welcome"),
			Scope:      pages.TenantScope(tenantID),
		})
		if err != nil {
			t.Fatalf("Upsert() repeat error = %v", err)
		}
		if want := 2 + i; latest.Version != want {
			t.Fatalf("expected version %d, got %d", want, latest.Version)
		}
	}
}

func TestUpsertConvergesAcrossIDRepresentations(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	legacyID := identity.LegacyPageUUID(42)
	page := tenantPage(tenantID)
	page.ID = legacyID
	svc := NewService(NewMemoryRepository(), &fakeResolver{pages: map[uuid.UUID]*pages.Page{page.ID: page}})

	representations := []any{42, "42", int64(42), float64(42)}
	for i, rep := range representations {
		stored, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
			PageID:     rep,
			Language:   "en",
			LayoutJSON: sampleDocument("Hello"),
			Scope:      pages.TenantScope(tenantID),
		})
		if err != nil {
			t.Fatalf("Upsert(%v) error = %v", rep, err)
		}
		if stored.PageID != legacyID {
			t.Fatalf("Upsert(%v) landed on %s, want %s", rep, stored.PageID, legacyID)
		}
		if want := i + 1; stored.Version != want {
			t.Fatalf("Upsert(%v) version = %d, want %d", rep, stored.Version, want)
		}
	}
}

func TestUpsertConcurrentFreshPair(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	page := tenantPage(tenantID)
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeResolver{pages: map[uuid.UUID]*pages.Page{page.ID: page}})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Upsert(ctx, pages.UpsertLayoutRequest{
				PageID:     page.ID,
				Language:   pages.LanguageDefault,
				LayoutJSON: sampleDocument("Race"),
				Scope:      pages.TenantScope(tenantID),
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("writer %d error = %v", i, err)
		}
	}

	rows, err := repo.ListByPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("ListByPage() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0].Version != 2 {
		t.Fatalf("expected both writers observed, version = %d", rows[0].Version)
	}
}

func TestUpsertRejectsMasterPage(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	master := &pages.Page{ID: uuid.New(), PageName: "Home", Slug: "homepage", PageType: pages.TypePage}
	svc := NewService(NewMemoryRepository(), &fakeResolver{pages: map[uuid.UUID]*pages.Page{master.ID: master}})

	_, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
		PageID:     master.ID,
		LayoutJSON: sampleDocument("Nope"),
		Scope:      pages.TenantScope(tenantID),
	})
	if !errors.Is(err, pages.ErrMasterReadOnly) {
		t.Fatalf("expected ErrMasterReadOnly, got %v", err)
	}
	var masterErr *pages.MasterWriteError
	if !errors.As(err, &masterErr) {
		t.Fatalf("expected MasterWriteError, got %T", err)
	}
}

func TestUpsertRejectsInvalidDocument(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	page := tenantPage(tenantID)
	svc := NewService(NewMemoryRepository(), &fakeResolver{pages: map[uuid.UUID]*pages.Page{page.ID: page}})

	_, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
		PageID:     page.ID,
		LayoutJSON: map[string]any{"components": []any{"not-an-object"}},
		Scope:      pages.TenantScope(tenantID),
	})
	if !errors.Is(err, pages.ErrLayoutInvalid) {
		t.Fatalf("expected ErrLayoutInvalid, got %v", err)
	}
	var validationErr *pages.LayoutValidationError
	if !errors.As(err, &validationErr) || len(validationErr.Issues) == 0 {
		t.Fatalf("expected validation issues, got %v", err)
	}
}

func TestUpsertNormalizesMissingComponents(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	page := tenantPage(tenantID)
	svc := NewService(NewMemoryRepository(), &fakeResolver{pages: map[uuid.UUID]*pages.Page{page.ID: page}})

	stored, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
		PageID:     page.ID,
		LayoutJSON: map[string]any{"meta": map[string]any{"author": "demo"}},
		Scope:      pages.TenantScope(tenantID),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	components, ok := stored.LayoutJSON["components"].([]any)
	if !ok || len(components) != 0 {
		t.Fatalf("expected empty components array, got %v", stored.LayoutJSON["components"])
	}
}

func TestGetSynthesizesEmptyLayout(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil)

	pageID := uuid.New()
	record, err := svc.Get(ctx, pageID, "fr")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record.Version != 1 {
		t.Fatalf("expected synthesized version 1, got %d", record.Version)
	}
	components, ok := record.LayoutJSON["components"].([]any)
	if !ok || len(components) != 0 {
		t.Fatalf("expected empty document, got %v", record.LayoutJSON)
	}
}

func TestDefaultLanguageWriteEnqueuesTranslation(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	page := tenantPage(tenantID)
	sched := &fakeScheduler{}
	svc := NewService(
		NewMemoryRepository(),
		&fakeResolver{pages: map[uuid.UUID]*pages.Page{page.ID: page}},
		WithScheduler(sched),
	)

	if _, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
		PageID:     page.ID,
		Language:   pages.LanguageDefault,
		LayoutJSON: sampleDocument("Translate me"),
		Scope:      pages.TenantScope(tenantID),
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if len(sched.specs) != 1 {
		t.Fatalf("expected one enqueued job, got %d", len(sched.specs))
	}
	spec := sched.specs[0]
	if spec.Type != TranslateJobType {
		t.Fatalf("unexpected job type %q", spec.Type)
	}
	if spec.Key != TranslateJobKey(page.ID) {
		t.Fatalf("unexpected job key %q", spec.Key)
	}
	if spec.Payload["page_id"] != page.ID.String() || spec.Payload["tenant_id"] != tenantID.String() {
		t.Fatalf("unexpected payload %v", spec.Payload)
	}

	// A concrete-language write must not fan out again.
	if _, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
		PageID:     page.ID,
		Language:   "fr",
		LayoutJSON: sampleDocument("Traduis-moi"),
		Scope:      pages.TenantScope(tenantID),
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if len(sched.specs) != 1 {
		t.Fatalf("expected no extra jobs, got %d", len(sched.specs))
	}
}

func TestEnqueueFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	page := tenantPage(tenantID)
	sched := &fakeScheduler{fail: errors.New("queue down")}
	svc := NewService(
		NewMemoryRepository(),
		&fakeResolver{pages: map[uuid.UUID]*pages.Page{page.ID: page}},
		WithScheduler(sched),
	)

	stored, err := svc.Upsert(ctx, pages.UpsertLayoutRequest{
		PageID:     page.ID,
		Language:   pages.LanguageDefault,
		LayoutJSON: sampleDocument("Still saved"),
		Scope:      pages.TenantScope(tenantID),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if stored.Version != 1 {
		t.Fatalf("expected version 1, got %d", stored.Version)
	}
}

func TestGetBySlugResolvesTenantShadow(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	master := &pages.Page{ID: uuid.New(), PageName: "About", Slug: "about", PageType: pages.TypePage}
	shadow := tenantPage(tenantID)
	resolver := &fakeResolver{pages: map[uuid.UUID]*pages.Page{master.ID: master, shadow.ID: shadow}}
	repo := NewMemoryRepository()
	svc := NewService(repo, resolver)

	if _, err := repo.Upsert(ctx, &pages.PageLayout{
		PageID:     shadow.ID,
		Language:   pages.LanguageDefault,
		LayoutJSON: sampleDocument("Tenant copy"),
	}); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	record, err := svc.GetBySlug(ctx, "about", pages.LanguageDefault, pages.TenantScope(tenantID))
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if record.PageID != shadow.ID {
		t.Fatalf("expected tenant layout, got page %s", record.PageID)
	}
}
