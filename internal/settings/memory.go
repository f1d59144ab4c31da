package settings

import (
	"context"
	"sync"

	"github.com/goliatone/go-pagelayout/pages"
	"github.com/google/uuid"
)

// MemoryRepository keeps settings in process memory, mirroring the bun
// repository's tenant fallback semantics for tests and mock mode.
type MemoryRepository struct {
	mu     sync.RWMutex
	tenant map[uuid.UUID]map[string]string
	master map[string]string
}

// NewMemoryRepository constructs an empty in-memory settings repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tenant: make(map[uuid.UUID]map[string]string),
		master: make(map[string]string),
	}
}

// Get resolves a setting, preferring the tenant row over the master row.
func (r *MemoryRepository) Get(_ context.Context, key string, scope pages.Scope) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if scope.TenantID != nil {
		if values, ok := r.tenant[*scope.TenantID]; ok {
			if value, ok := values[key]; ok {
				return value, nil
			}
		}
	}
	if value, ok := r.master[key]; ok {
		return value, nil
	}
	return "", ErrSettingNotFound
}

// Set stores a tenant-owned setting.
func (r *MemoryRepository) Set(_ context.Context, key, value string, tenantID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, ok := r.tenant[tenantID]
	if !ok {
		values = make(map[string]string)
		r.tenant[tenantID] = values
	}
	values[key] = value
	return nil
}

// SetMaster stores a shared master setting visible to every tenant.
func (r *MemoryRepository) SetMaster(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.master[key] = value
}
