package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-pagelayout/internal/identity"
	"github.com/goliatone/go-pagelayout/pages"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRepository persists settings using a Bun-backed database.
type BunRepository struct {
	db *bun.DB
}

// NewBunRepository constructs a Bun-backed settings repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Get resolves a setting, preferring the tenant row over the master row.
func (r *BunRepository) Get(ctx context.Context, key string, scope pages.Scope) (string, error) {
	if r.db == nil {
		return "", errors.New("settings: bun repository requires a database")
	}
	var model Setting
	q := r.db.NewSelect().Model(&model).Where("?TableAlias.setting_key = ?", key)
	if scope.TenantID == nil {
		q = q.Where("?TableAlias.tenant_id IS NULL")
	} else {
		q = q.Where("(?TableAlias.tenant_id = ? OR ?TableAlias.tenant_id IS NULL)", *scope.TenantID).
			OrderExpr("CASE WHEN ?TableAlias.tenant_id = ? THEN 0 ELSE 1 END", *scope.TenantID)
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return model.Value, nil
}

// Set upserts a tenant-owned setting keyed by (setting_key, tenant_id).
func (r *BunRepository) Set(ctx context.Context, key, value string, tenantID uuid.UUID) error {
	if r.db == nil {
		return errors.New("settings: bun repository requires a database")
	}
	model := Setting{
		ID:        identity.UUID("pagelayout:setting:" + tenantID.String() + ":" + key),
		Key:       key,
		Value:     value,
		TenantID:  &tenantID,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.db.NewInsert().
		Model(&model).
		On("CONFLICT (setting_key, tenant_id) DO UPDATE").
		Set("setting_value = EXCLUDED.setting_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
