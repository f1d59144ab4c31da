package themefs

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/goliatone/go-pagelayout/internal/identity"
	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/pages"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	manifestFile = "theme.json"
	pagesFile    = "pages.json"
)

// Manifest describes one theme directory.
type Manifest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// pageEntry is one record of a theme's pages.json.
type pageEntry struct {
	PageName        string         `json:"page_name"`
	Slug            string         `json:"slug"`
	PageType        string         `json:"page_type,omitempty"`
	Status          string         `json:"status,omitempty"`
	SEOIndex        *bool          `json:"seo_index,omitempty"`
	MetaTitle       *string        `json:"meta_title,omitempty"`
	MetaDescription *string        `json:"meta_description,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Layout          map[string]any `json:"layout,omitempty"`
}

// Theme is a loaded theme: its manifest plus the synthesized page records.
type Theme struct {
	Manifest Manifest
	Pages    []*pages.Page
	layouts  map[uuid.UUID]map[string]any
}

// Registry loads themes from a filesystem and serves their pages as read-only
// fallback records. Page identifiers are deterministic, so the same theme page
// resolves to the same UUID across restarts and hosts.
type Registry struct {
	mu     sync.RWMutex
	themes map[string]*Theme
	logger interfaces.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger attaches a logger to the registry.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry constructs an empty theme registry.
func NewRegistry(opts ...Option) *Registry {
	reg := &Registry{
		themes: make(map[string]*Theme),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Load walks the root of fsys: every directory containing a theme.json is
// loaded as a theme. Malformed themes are skipped with a warning so one broken
// theme does not take the catalog down.
func (r *Registry) Load(fsys fs.FS) error {
	if fsys == nil {
		return fmt.Errorf("themefs: nil filesystem")
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("themefs: read theme root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		theme, err := r.loadTheme(fsys, entry.Name())
		if err != nil {
			r.logger.Warn("skipping theme", "dir", entry.Name(), "error", err)
			continue
		}
		r.mu.Lock()
		r.themes[theme.Manifest.Slug] = theme
		r.mu.Unlock()
		r.logger.Info("theme loaded",
			"theme", theme.Manifest.Slug,
			"pages", len(theme.Pages),
		)
	}
	return nil
}

func (r *Registry) loadTheme(fsys fs.FS, dir string) (*Theme, error) {
	manifestRaw, err := fs.ReadFile(fsys, path.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", manifestFile, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", manifestFile, err)
	}
	if strings.TrimSpace(manifest.Slug) == "" {
		manifest.Slug = strings.ToLower(strings.TrimSpace(dir))
	}
	manifest.Slug = strings.ToLower(strings.TrimSpace(manifest.Slug))
	if manifest.Name == "" {
		manifest.Name = manifest.Slug
	}

	theme := &Theme{
		Manifest: manifest,
		layouts:  make(map[uuid.UUID]map[string]any),
	}

	pagesRaw, err := fs.ReadFile(fsys, path.Join(dir, pagesFile))
	if err != nil {
		// A theme without pages.json contributes nothing to the catalog but
		// is still a valid theme.
		return theme, nil
	}
	var pageEntries []pageEntry
	if err := json.Unmarshal(pagesRaw, &pageEntries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", pagesFile, err)
	}

	for i, entry := range pageEntries {
		page, err := r.buildPage(manifest.Slug, entry)
		if err != nil {
			r.logger.Warn("skipping theme page",
				"theme", manifest.Slug,
				"index", i,
				"error", err,
			)
			continue
		}
		theme.Pages = append(theme.Pages, page)
		if entry.Layout != nil {
			theme.layouts[page.ID] = entry.Layout
		}
	}
	return theme, nil
}

func (r *Registry) buildPage(themeSlug string, entry pageEntry) (*pages.Page, error) {
	if strings.TrimSpace(entry.PageName) == "" {
		return nil, pages.ErrPageNameRequired
	}
	if strings.TrimSpace(entry.Slug) == "" {
		return nil, pages.ErrSlugRequired
	}

	key := pages.ThemePageKey(themeSlug, entry.Slug)
	id, err := pages.NormalizeID(key)
	if err != nil {
		return nil, err
	}

	pageSlug := strings.Trim(strings.ToLower(strings.TrimSpace(entry.Slug)), "/")
	if pageSlug == "" {
		pageSlug = "homepage"
	}
	seoIndex := true
	if entry.SEOIndex != nil {
		seoIndex = *entry.SEOIndex
	}
	theme := themeSlug
	return &pages.Page{
		ID:              id,
		PageName:        strings.TrimSpace(entry.PageName),
		Slug:            pageSlug,
		PageType:        defaultString(entry.PageType, pages.TypePage),
		Status:          defaultString(entry.Status, pages.StatusPublished),
		ThemeID:         &theme,
		SEOIndex:        seoIndex,
		MetaTitle:       entry.MetaTitle,
		MetaDescription: entry.MetaDescription,
		Metadata:        entry.Metadata,
		FromFilesystem:  true,
	}, nil
}

// Themes lists the loaded theme slugs.
func (r *Registry) Themes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.themes))
	for slug := range r.themes {
		out = append(out, slug)
	}
	return out
}

// Pages lists every filesystem page across loaded themes.
func (r *Registry) Pages() []*pages.Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*pages.Page{}
	for _, theme := range r.themes {
		out = append(out, theme.Pages...)
	}
	return out
}

// PagesForTheme lists the filesystem pages of one theme.
func (r *Registry) PagesForTheme(themeSlug string) []*pages.Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	theme, ok := r.themes[strings.ToLower(strings.TrimSpace(themeSlug))]
	if !ok {
		return nil
	}
	return theme.Pages
}

// PageByID resolves a filesystem page by its deterministic UUID.
func (r *Registry) PageByID(id uuid.UUID) (*pages.Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, theme := range r.themes {
		for _, page := range theme.Pages {
			if page.ID == id {
				return page, true
			}
		}
	}
	return nil, false
}

// PageBySlug resolves a filesystem page by slug across loaded themes.
func (r *Registry) PageBySlug(pageSlug string) (*pages.Page, bool) {
	normalized := strings.Trim(strings.ToLower(strings.TrimSpace(pageSlug)), "/")
	if normalized == "" {
		normalized = "homepage"
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, theme := range r.themes {
		for _, page := range theme.Pages {
			if page.Slug == normalized {
				return page, true
			}
		}
	}
	return nil, false
}

// DefaultLayout returns the layout document a theme ships for a page, when one
// exists. Callers use it to seed the layout store on first edit.
func (r *Registry) DefaultLayout(id uuid.UUID) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, theme := range r.themes {
		if layout, ok := theme.layouts[id]; ok {
			return layout, true
		}
	}
	return nil, false
}

// BuiltinTheme returns the theme bundled with the engine: a minimal landing
// theme with a homepage, so fresh installs render something before any theme
// is installed.
func BuiltinTheme() *Theme {
	const slug = "landing"
	theme := "landing"
	homepageID := identity.ThemePageUUID(slug, "homepage")
	return &Theme{
		Manifest: Manifest{Name: "Landing", Slug: slug, Version: "1.0.0"},
		Pages: []*pages.Page{
			{
				ID:             homepageID,
				PageName:       "Homepage",
				Slug:           "homepage",
				PageType:       pages.TypePage,
				Status:         pages.StatusPublished,
				ThemeID:        &theme,
				SEOIndex:       true,
				FromFilesystem: true,
			},
		},
		layouts: map[uuid.UUID]map[string]any{
			homepageID: {
				"components": []any{
					map[string]any{
						"id":   "hero-1",
						"type": "hero",
						"props": map[string]any{
							"heading":    "Welcome",
							"subheading": "Edit this page to get started.",
						},
					},
				},
			},
		},
	}
}

// Register adds a preloaded theme to the registry, replacing any theme with
// the same slug.
func (r *Registry) Register(theme *Theme) {
	if theme == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if theme.layouts == nil {
		theme.layouts = make(map[uuid.UUID]map[string]any)
	}
	r.themes[theme.Manifest.Slug] = theme
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
