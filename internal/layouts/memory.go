package layouts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-pagelayout/pages"
	"github.com/google/uuid"
)

type layoutKey struct {
	pageID   uuid.UUID
	language string
}

// MemoryRepository keeps layouts in process memory. It reproduces the bun
// repository's version semantics under a single mutex so concurrent upserts to
// the same pair still yield one row per increment.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[layoutKey]*pages.PageLayout
}

// NewMemoryRepository constructs an empty in-memory layout repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[layoutKey]*pages.PageLayout)}
}

var _ Repository = (*MemoryRepository)(nil)

// Upsert inserts at version one or replaces the document with the version
// incremented by one.
func (r *MemoryRepository) Upsert(_ context.Context, record *pages.PageLayout) (*pages.PageLayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := layoutKey{pageID: record.PageID, language: record.Language}
	stored := &pages.PageLayout{
		ID:         record.ID,
		PageID:     record.PageID,
		Language:   record.Language,
		LayoutJSON: record.LayoutJSON,
		Version:    1,
		UpdatedAt:  record.UpdatedAt,
	}
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	if existing, ok := r.records[key]; ok {
		stored.ID = existing.ID
		stored.Version = existing.Version + 1
	}
	r.records[key] = stored
	return copyLayout(stored), nil
}

// Get loads the layout for one (page, language) pair.
func (r *MemoryRepository) Get(_ context.Context, pageID uuid.UUID, language string) (*pages.PageLayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[layoutKey{pageID: pageID, language: language}]
	if !ok {
		return nil, pages.ErrLayoutNotFound
	}
	return copyLayout(record), nil
}

// ListByPage returns every stored language row for a page, ordered by language.
func (r *MemoryRepository) ListByPage(_ context.Context, pageID uuid.UUID) ([]*pages.PageLayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*pages.PageLayout{}
	for key, record := range r.records {
		if key.pageID == pageID {
			out = append(out, copyLayout(record))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out, nil
}

// DeleteByPage removes every language row for a page. The page registry calls
// this when a tenant page is deleted.
func (r *MemoryRepository) DeleteByPage(_ context.Context, pageID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.records {
		if key.pageID == pageID {
			delete(r.records, key)
		}
	}
	return nil
}

func copyLayout(record *pages.PageLayout) *pages.PageLayout {
	if record == nil {
		return nil
	}
	out := *record
	out.LayoutJSON = cloneDocument(record.LayoutJSON)
	return &out
}
