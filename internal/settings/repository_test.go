package settings

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-pagelayout/pages"
	"github.com/google/uuid"
)

func TestLanguageSetTargets(t *testing.T) {
	cases := []struct {
		name string
		set  LanguageSet
		want []string
	}{
		{
			name: "default excluded",
			set:  LanguageSet{Default: "en", Configured: []string{"en", "fr", "de"}},
			want: []string{"fr", "de"},
		},
		{
			name: "literal default excluded",
			set:  LanguageSet{Default: "en", Configured: []string{"default", "en", "fr"}},
			want: []string{"fr"},
		},
		{
			name: "duplicates collapsed",
			set:  LanguageSet{Default: "en", Configured: []string{"fr", "FR", " fr "}},
			want: []string{"fr"},
		},
		{
			name: "empty configuration",
			set:  LanguageSet{Default: "en"},
			want: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.set.Targets()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Targets() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMemoryRepositoryTenantShadowsMaster(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	tenantID := uuid.New()

	repo.SetMaster(KeySiteLanguage, "en")
	if err := repo.Set(ctx, KeySiteLanguage, "fr", tenantID); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := repo.Get(ctx, KeySiteLanguage, pages.TenantScope(tenantID))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "fr" {
		t.Fatalf("expected tenant value to shadow master, got %q", got)
	}

	other := uuid.New()
	got, err = repo.Get(ctx, KeySiteLanguage, pages.TenantScope(other))
	if err != nil {
		t.Fatalf("Get() fallback error = %v", err)
	}
	if got != "en" {
		t.Fatalf("expected master fallback, got %q", got)
	}
}

func TestLanguagesMissingSettings(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	set, err := Languages(ctx, repo, pages.TenantScope(uuid.New()))
	if err != nil {
		t.Fatalf("Languages() error = %v", err)
	}
	if set.Default != "" || len(set.Configured) != 0 {
		t.Fatalf("expected empty language set, got %+v", set)
	}
	if targets := set.Targets(); len(targets) != 0 {
		t.Fatalf("expected no targets, got %v", targets)
	}
}

func TestLanguagesParsesConfiguredList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	tenantID := uuid.New()
	if err := repo.Set(ctx, KeySiteLanguage, "EN", tenantID); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(ctx, KeySiteContentLanguages, "en, fr ,de,,", tenantID); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	set, err := Languages(ctx, repo, pages.TenantScope(tenantID))
	if err != nil {
		t.Fatalf("Languages() error = %v", err)
	}
	if set.Default != "en" {
		t.Fatalf("expected lowercased default, got %q", set.Default)
	}
	if want := []string{"fr", "de"}; !reflect.DeepEqual(set.Targets(), want) {
		t.Fatalf("Targets() = %v, want %v", set.Targets(), want)
	}
}

func TestMemoryRepositoryMissingKey(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.Get(context.Background(), "absent", pages.Scope{}); !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected ErrSettingNotFound, got %v", err)
	}
}
