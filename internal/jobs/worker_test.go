package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-pagelayout/internal/layouts"
	"github.com/goliatone/go-pagelayout/internal/scheduler"
	"github.com/goliatone/go-pagelayout/internal/settings"
	"github.com/goliatone/go-pagelayout/pages"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	"github.com/google/uuid"
)

type stubTranslator struct {
	fail        bool
	failTargets map[string]bool
	calls       int
}

func (s *stubTranslator) TranslateDocument(_ context.Context, doc map[string]any, _, target string) (map[string]any, int, error) {
	s.calls++
	if s.fail || s.failTargets[target] {
		return nil, 0, errors.New("provider down")
	}
	out := map[string]any{}
	for key, value := range doc {
		out[key] = value
	}
	out["language"] = target
	return out, 0, nil
}

type workerFixture struct {
	scheduler  interfaces.Scheduler
	layouts    *layouts.MemoryRepository
	settings   *settings.MemoryRepository
	translator *stubTranslator
	audit      *InMemoryAuditRecorder
	worker     *Worker
	now        time.Time
	tenantID   uuid.UUID
	pageID     uuid.UUID
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	f := &workerFixture{
		scheduler:  scheduler.NewInMemory(scheduler.WithClock(func() time.Time { return now })),
		layouts:    layouts.NewMemoryRepository(),
		settings:   settings.NewMemoryRepository(),
		translator: &stubTranslator{},
		audit:      NewInMemoryAuditRecorder(),
		now:        now,
		tenantID:   uuid.New(),
		pageID:     uuid.New(),
	}
	f.worker = NewWorker(f.scheduler, f.layouts, f.settings, f.translator,
		WithAuditRecorder(f.audit),
		WithClock(func() time.Time { return now }),
	)
	return f
}

func (f *workerFixture) configureLanguages(t *testing.T, defaultLang string, configured string) {
	t.Helper()
	ctx := context.Background()
	if err := f.settings.Set(ctx, settings.KeySiteLanguage, defaultLang, f.tenantID); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if err := f.settings.Set(ctx, settings.KeySiteContentLanguages, configured, f.tenantID); err != nil {
		t.Fatalf("set content languages: %v", err)
	}
}

func (f *workerFixture) seedDefaultLayout(t *testing.T) {
	t.Helper()
	if _, err := f.layouts.Upsert(context.Background(), &pages.PageLayout{
		PageID:   f.pageID,
		Language: pages.LanguageDefault,
		LayoutJSON: map[string]any{
			"components": []any{
				map[string]any{"id": "hero-1", "type": "hero", "props": map[string]any{"heading": "Hello world"}},
			},
		},
	}); err != nil {
		t.Fatalf("seed layout: %v", err)
	}
}

func (f *workerFixture) enqueueTranslate(t *testing.T) *interfaces.Job {
	t.Helper()
	job, err := f.scheduler.Enqueue(context.Background(), interfaces.JobSpec{
		Key:   layouts.TranslateJobKey(f.pageID),
		Type:  layouts.TranslateJobType,
		RunAt: f.now,
		Payload: map[string]any{
			"page_id":   f.pageID.String(),
			"tenant_id": f.tenantID.String(),
		},
		MaxAttempts: 2,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return job
}

func TestWorkerTranslatesConfiguredLanguages(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	f.configureLanguages(t, "en", "en,fr,de")
	f.seedDefaultLayout(t)
	job := f.enqueueTranslate(t)

	if err := f.worker.Process(ctx); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	for _, lang := range []string{"fr", "de"} {
		record, err := f.layouts.Get(ctx, f.pageID, lang)
		if err != nil {
			t.Fatalf("expected %s layout, got %v", lang, err)
		}
		if record.LayoutJSON["language"] != lang {
			t.Fatalf("expected translated %s document, got %v", lang, record.LayoutJSON)
		}
		if record.Version != 1 {
			t.Fatalf("expected fresh %s row at version 1, got %d", lang, record.Version)
		}
	}
	// The default language is never a target.
	if _, err := f.layouts.Get(ctx, f.pageID, "en"); !errors.Is(err, pages.ErrLayoutNotFound) {
		t.Fatalf("default language should not be translated, got %v", err)
	}

	stored, err := f.scheduler.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", stored.Status)
	}

	events := f.audit.Events()
	if len(events) != 1 || events[0].Action != "translate" {
		t.Fatalf("expected translate audit event, got %+v", events)
	}
}

func TestWorkerSkipsWithoutTargets(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	f.configureLanguages(t, "en", "en")
	f.seedDefaultLayout(t)
	job := f.enqueueTranslate(t)

	if err := f.worker.Process(ctx); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.translator.calls != 0 {
		t.Fatalf("expected no translator calls, got %d", f.translator.calls)
	}
	stored, _ := f.scheduler.Get(ctx, job.ID)
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s", stored.Status)
	}
}

func TestWorkerSkipsMissingSourceLayout(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	f.configureLanguages(t, "en", "en,fr")
	job := f.enqueueTranslate(t)

	if err := f.worker.Process(ctx); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	stored, _ := f.scheduler.Get(ctx, job.ID)
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected completed job without source layout, got %s", stored.Status)
	}
}

func TestWorkerContinuesPastFailedLanguage(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	f.configureLanguages(t, "en", "en,fr,de")
	f.seedDefaultLayout(t)
	f.translator.failTargets = map[string]bool{"fr": true}
	job := f.enqueueTranslate(t)

	if err := f.worker.Process(ctx); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// The de layout lands even though fr failed before it.
	record, err := f.layouts.Get(ctx, f.pageID, "de")
	if err != nil {
		t.Fatalf("expected de layout despite fr failure, got %v", err)
	}
	if record.LayoutJSON["language"] != "de" {
		t.Fatalf("expected translated de document, got %v", record.LayoutJSON)
	}
	if _, err := f.layouts.Get(ctx, f.pageID, "fr"); !errors.Is(err, pages.ErrLayoutNotFound) {
		t.Fatalf("fr layout should be absent, got %v", err)
	}

	stored, err := f.scheduler.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected completed job after partial success, got %s", stored.Status)
	}

	events := f.audit.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	failed, _ := events[0].Metadata["failed_languages"].([]string)
	if len(failed) != 1 || failed[0] != "fr" {
		t.Fatalf("expected fr in failed languages, got %+v", events[0].Metadata)
	}
}

func TestWorkerRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	f.configureLanguages(t, "en", "en,fr")
	f.seedDefaultLayout(t)
	f.translator.fail = true
	job := f.enqueueTranslate(t)

	if err := f.worker.Process(ctx); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	stored, _ := f.scheduler.Get(ctx, job.ID)
	if stored.Status != interfaces.JobStatusPending || stored.Attempt != 1 {
		t.Fatalf("expected pending retry, got %+v", stored)
	}

	if err := f.worker.Process(ctx); err != nil {
		t.Fatalf("Process() second pass error = %v", err)
	}
	stored, _ = f.scheduler.Get(ctx, job.ID)
	if stored.Status != interfaces.JobStatusFailed {
		t.Fatalf("expected failed after max attempts, got %+v", stored)
	}
}

func TestWorkerIgnoresUnknownJobTypes(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)

	job, err := f.scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:   "other.system:1",
		Type:  "other.system.job",
		RunAt: f.now,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := f.worker.Process(ctx); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	stored, _ := f.scheduler.Get(ctx, job.ID)
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected unknown job completed, got %s", stored.Status)
	}
}
