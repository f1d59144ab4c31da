package jobs

import (
	"context"
	"time"

	"github.com/goliatone/go-pagelayout/internal/settings"
	"github.com/goliatone/go-pagelayout/pages"
	"github.com/google/uuid"
)

// AuditedSettings decorates a settings repository so every write lands in the
// audit trail. Reads pass through untouched. A nil recorder returns the
// repository unchanged.
func AuditedSettings(repo settings.Repository, recorder AuditRecorder, now func() time.Time) settings.Repository {
	if recorder == nil {
		return repo
	}
	if now == nil {
		now = time.Now
	}
	return &auditedSettings{inner: repo, audit: recorder, now: now}
}

type auditedSettings struct {
	inner settings.Repository
	audit AuditRecorder
	now   func() time.Time
}

var _ settings.Repository = (*auditedSettings)(nil)

func (r *auditedSettings) Get(ctx context.Context, key string, scope pages.Scope) (string, error) {
	return r.inner.Get(ctx, key, scope)
}

func (r *auditedSettings) Set(ctx context.Context, key, value string, tenantID uuid.UUID) error {
	if err := r.inner.Set(ctx, key, value, tenantID); err != nil {
		return err
	}
	// Best effort: a failed audit write never undoes the setting.
	_ = r.audit.Record(ctx, AuditEvent{
		EntityType: "site_setting",
		EntityID:   tenantID.String(),
		Action:     "set",
		OccurredAt: r.now().UTC(),
		Metadata: map[string]any{
			"setting_key": key,
			"value":       value,
		},
	})
	return nil
}
