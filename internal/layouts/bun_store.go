package layouts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goliatone/go-pagelayout/pages"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRepository persists layouts through Bun. The version bump is pushed into
// a single INSERT ... ON CONFLICT statement so concurrent writers to the same
// (page_id, language) pair serialize on the unique index instead of racing a
// read-modify-write cycle.
type BunRepository struct {
	db bun.IDB
}

// NewBunRepository constructs a Bun-backed layout repository.
func NewBunRepository(db bun.IDB) *BunRepository {
	return &BunRepository{db: db}
}

var _ Repository = (*BunRepository)(nil)

// Upsert writes the layout atomically: fresh pairs insert at version one,
// existing pairs take the new document with version incremented by one. The
// stored row is scanned back so callers observe the resulting version.
func (r *BunRepository) Upsert(ctx context.Context, record *pages.PageLayout) (*pages.PageLayout, error) {
	if r.db == nil {
		return nil, errors.New("layouts: bun repository requires a database")
	}
	if record == nil {
		return nil, errors.New("layouts: nil layout record")
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Version = 1

	_, err := r.db.NewInsert().
		Model(record).
		On("CONFLICT (page_id, language) DO UPDATE").
		Set("layout_json = EXCLUDED.layout_json").
		Set("version = version + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("layouts: upsert page=%s language=%s: %w", record.PageID, record.Language, err)
	}
	return record, nil
}

// Get loads the layout for one (page, language) pair.
func (r *BunRepository) Get(ctx context.Context, pageID uuid.UUID, language string) (*pages.PageLayout, error) {
	if r.db == nil {
		return nil, errors.New("layouts: bun repository requires a database")
	}
	var record pages.PageLayout
	err := r.db.NewSelect().
		Model(&record).
		Where("?TableAlias.page_id = ?", pageID).
		Where("?TableAlias.language = ?", language).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pages.ErrLayoutNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByPage returns every stored language row for a page.
func (r *BunRepository) ListByPage(ctx context.Context, pageID uuid.UUID) ([]*pages.PageLayout, error) {
	if r.db == nil {
		return nil, errors.New("layouts: bun repository requires a database")
	}
	var records []*pages.PageLayout
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.page_id = ?", pageID).
		Order("language ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
