package tenancy

import (
	"github.com/goliatone/go-pagelayout/internal/identity"
	"github.com/goliatone/go-pagelayout/pages"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DemoTenantKey is the reserved tenant that may fall back to
// filesystem-provided theme pages when the database holds none.
const DemoTenantKey = "demo"

// DemoTenantID resolves the reserved demo tenant to its stable UUID.
func DemoTenantID() uuid.UUID {
	return identity.TenantUUID(DemoTenantKey)
}

// IsDemoTenant reports whether the scope targets the reserved demo tenant.
func IsDemoTenant(scope pages.Scope) bool {
	return scope.TenantID != nil && *scope.TenantID == DemoTenantID()
}

// ApplyReadScope restricts a query to rows visible to the scope: the tenant's
// own rows plus the shared master rows. A scope without a tenant sees master
// rows only.
func ApplyReadScope(q *bun.SelectQuery, scope pages.Scope) *bun.SelectQuery {
	if q == nil {
		return q
	}
	if scope.SuperAdmin && scope.TenantID == nil {
		return q
	}
	if scope.TenantID == nil {
		return q.Where("?TableAlias.tenant_id IS NULL")
	}
	return q.Where("(?TableAlias.tenant_id = ? OR ?TableAlias.tenant_id IS NULL)", *scope.TenantID)
}

// ApplyShadowOrder sorts tenant-owned rows ahead of master rows so that a
// LIMIT 1 lookup returns the shadowing record when both exist for a key.
func ApplyShadowOrder(q *bun.SelectQuery, scope pages.Scope) *bun.SelectQuery {
	if q == nil || scope.TenantID == nil {
		return q
	}
	return q.OrderExpr("CASE WHEN ?TableAlias.tenant_id = ? THEN 0 ELSE 1 END", *scope.TenantID)
}

// ShadowMerge collapses a mixed master/tenant result set so that tenant rows
// hide master rows sharing the same (slug, page_type) key. Input order is
// preserved for the surviving records.
func ShadowMerge(records []*pages.Page, scope pages.Scope) []*pages.Page {
	if scope.TenantID == nil || len(records) == 0 {
		return records
	}
	type key struct {
		slug     string
		pageType string
	}
	shadowed := make(map[key]bool, len(records))
	for _, record := range records {
		if record == nil || record.TenantID == nil {
			continue
		}
		if *record.TenantID == *scope.TenantID {
			shadowed[key{record.Slug, record.PageType}] = true
		}
	}
	out := make([]*pages.Page, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		if record.TenantID == nil && shadowed[key{record.Slug, record.PageType}] {
			continue
		}
		out = append(out, record)
	}
	return out
}

// AssertWritable rejects mutations against master rows and rows owned by a
// tenant the scope cannot access.
func AssertWritable(record *pages.Page, scope pages.Scope, operation string) error {
	if record == nil {
		return &pages.PageNotFoundError{}
	}
	if record.TenantID == nil {
		return &pages.MasterWriteError{PageID: record.ID, Operation: operation}
	}
	if !scope.CanAccess(*record.TenantID) {
		return pages.ErrTenantForbidden
	}
	return nil
}
