package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDDeterministic(t *testing.T) {
	first := UUID("pagelayout:test:alpha")
	second := UUID("pagelayout:test:alpha")
	if first == uuid.Nil {
		t.Fatalf("expected non-nil uuid")
	}
	if first != second {
		t.Fatalf("expected stable uuid, got %s and %s", first, second)
	}
	if UUID("pagelayout:test:beta") == first {
		t.Fatalf("expected distinct uuids for distinct keys")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid for blank key, got %s", got)
	}
}

func TestLegacyPageUUIDMatchesNumericForms(t *testing.T) {
	if LegacyPageUUID(42) != LegacyPageUUID(42) {
		t.Fatalf("expected stable legacy id mapping")
	}
	if LegacyPageUUID(42) == LegacyPageUUID(43) {
		t.Fatalf("expected distinct ids for distinct legacy keys")
	}
}

func TestThemePageUUIDNormalizesCase(t *testing.T) {
	if ThemePageUUID("Aurora", "/About") != ThemePageUUID("aurora", "/about") {
		t.Fatalf("expected case-insensitive theme page ids")
	}
}

func TestTenantUUIDDemoStable(t *testing.T) {
	if TenantUUID("demo") != TenantUUID(" Demo ") {
		t.Fatalf("expected trimmed, case-insensitive tenant ids")
	}
}
