package pagelayout_test

import (
	"context"
	"errors"
	"maps"
	"testing"
	"time"

	pagelayout "github.com/goliatone/go-pagelayout"
	"github.com/goliatone/go-pagelayout/internal/jobs"
	"github.com/goliatone/go-pagelayout/internal/settings"
	"github.com/goliatone/go-pagelayout/internal/tenancy"
	"github.com/google/uuid"
)

type markerTranslator struct {
	calls int
}

func (t *markerTranslator) TranslateDocument(_ context.Context, doc map[string]any, _, target string) (map[string]any, int, error) {
	t.calls++
	out := maps.Clone(doc)
	out["language"] = target
	return out, 0, nil
}

func noopConfig() pagelayout.Config {
	cfg := pagelayout.DefaultConfig()
	cfg.Logging.Provider = "noop"
	return cfg
}

func TestModuleTranslationFlow(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	translator := &markerTranslator{}

	mod, err := pagelayout.New(noopConfig(),
		pagelayout.WithTranslator(translator),
		pagelayout.WithClock(func() time.Time { return clock }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tenantID := uuid.New()
	scope := pagelayout.TenantScope(tenantID)

	if err := mod.Settings().Set(ctx, settings.KeySiteLanguage, "en", tenantID); err != nil {
		t.Fatalf("Set(site_language) error = %v", err)
	}
	if err := mod.Settings().Set(ctx, settings.KeySiteContentLanguages, "en, fr, de", tenantID); err != nil {
		t.Fatalf("Set(site_content_languages) error = %v", err)
	}

	page, err := mod.Pages().Create(ctx, pagelayout.CreatePageRequest{
		PageName: "Landing",
		Slug:     "landing",
		Scope:    scope,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	layout, err := mod.Layouts().Upsert(ctx, pagelayout.UpsertLayoutRequest{
		PageID: page.ID,
		LayoutJSON: map[string]any{
			"components": []any{
				map[string]any{"id": "hero", "type": "hero", "props": map[string]any{"heading": "Welcome"}},
			},
		},
		Scope: scope,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if layout.Version != 1 {
		t.Fatalf("expected version 1, got %d", layout.Version)
	}

	if worker := mod.Worker(); worker == nil {
		t.Fatal("expected worker when a translator is supplied")
	} else if err := worker.Process(ctx); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if translator.calls != 2 {
		t.Fatalf("expected 2 translator calls (fr, de), got %d", translator.calls)
	}
	for _, lang := range []string{"fr", "de"} {
		got, err := mod.Layouts().Get(ctx, page.ID, lang)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", lang, err)
		}
		if got.Version != 1 {
			t.Fatalf("expected %s layout at version 1, got %d", lang, got.Version)
		}
		if got.LayoutJSON["language"] != lang {
			t.Fatalf("expected %s marker in translated layout, got %v", lang, got.LayoutJSON["language"])
		}
	}

	recorder, ok := mod.Audit().(*jobs.InMemoryAuditRecorder)
	if !ok {
		t.Fatalf("expected default in-memory audit recorder, got %T", mod.Audit())
	}
	translated := 0
	for _, event := range recorder.Events() {
		if event.Action == "translate" {
			translated++
		}
	}
	if translated != 1 {
		t.Fatalf("expected 1 translate audit event, got %d", translated)
	}
}

func TestModuleGetSynthesizesEmptyLayout(t *testing.T) {
	ctx := context.Background()

	mod, err := pagelayout.New(noopConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := mod.Layouts().Get(ctx, uuid.New(), "en")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("expected synthesized version 1, got %d", got.Version)
	}
	components, ok := got.LayoutJSON["components"].([]any)
	if !ok || len(components) != 0 {
		t.Fatalf("expected empty components slice, got %v", got.LayoutJSON)
	}
}

func TestModuleWithoutTranslatorHasNoWorker(t *testing.T) {
	mod, err := pagelayout.New(noopConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if mod.Worker() != nil {
		t.Fatal("expected nil worker when translation is disabled")
	}

	// Start/Stop stay safe no-ops without a worker.
	mod.Start(context.Background())
	mod.Stop()
}

func TestModuleBuiltinThemeServesDemoTenant(t *testing.T) {
	ctx := context.Background()

	mod, err := pagelayout.New(noopConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	scope := pagelayout.TenantScope(tenancy.DemoTenantID())
	page, err := mod.Pages().GetBySlug(ctx, "homepage", scope)
	if err != nil {
		t.Fatalf("GetBySlug(homepage) error = %v", err)
	}
	if !page.FromFilesystem {
		t.Fatal("expected filesystem-backed page for the demo tenant")
	}

	otherScope := pagelayout.TenantScope(uuid.New())
	if _, err := mod.Pages().GetBySlug(ctx, "homepage", otherScope); err == nil {
		t.Fatal("expected miss for non-demo tenant without a database row")
	}
}

func TestModuleRejectsInvalidConfig(t *testing.T) {
	cfg := noopConfig()
	cfg.Worker.BatchSize = 0

	if _, err := pagelayout.New(cfg); !errors.Is(err, pagelayout.ErrWorkerBatchSizeInvalid) {
		t.Fatalf("expected ErrWorkerBatchSizeInvalid, got %v", err)
	}
}
