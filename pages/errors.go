package pages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrPageNameRequired  = errors.New("pages: page name is required")
	ErrSlugRequired      = errors.New("pages: slug is required")
	ErrSlugInvalid       = errors.New("pages: slug contains invalid characters")
	ErrSlugExists        = errors.New("pages: slug already exists")
	ErrPageNotFound      = errors.New("pages: page not found")
	ErrLayoutNotFound    = errors.New("pages: layout not found")
	ErrMasterReadOnly    = errors.New("pages: cannot update or delete master data")
	ErrTenantRequired    = errors.New("pages: tenant id required")
	ErrTenantForbidden   = errors.New("pages: tenant not accessible")
	ErrPageIDInvalid     = errors.New("pages: page id is not a recognized identifier")
	ErrLayoutInvalid     = errors.New("pages: layout document is invalid")
	ErrLanguageRequired  = errors.New("pages: language is required")
	ErrPageTypeMismatch  = errors.New("pages: page type does not match")
	ErrStatusUnsupported = errors.New("pages: unsupported status")
)

// PageNotFoundError reports a missing page lookup with the key that failed.
type PageNotFoundError struct {
	Key string
}

func (e *PageNotFoundError) Error() string {
	if e == nil || strings.TrimSpace(e.Key) == "" {
		return ErrPageNotFound.Error()
	}
	return fmt.Sprintf("%s: key=%s", ErrPageNotFound.Error(), e.Key)
}

func (e *PageNotFoundError) Unwrap() error {
	return ErrPageNotFound
}

// MasterWriteError captures a rejected mutation against a master row.
type MasterWriteError struct {
	PageID    uuid.UUID
	Operation string
}

func (e *MasterWriteError) Error() string {
	if e == nil {
		return ErrMasterReadOnly.Error()
	}
	op := strings.TrimSpace(e.Operation)
	if op == "" {
		return fmt.Sprintf("%s: id=%s", ErrMasterReadOnly.Error(), e.PageID)
	}
	return fmt.Sprintf("%s: op=%s id=%s", ErrMasterReadOnly.Error(), op, e.PageID)
}

func (e *MasterWriteError) Unwrap() error {
	return ErrMasterReadOnly
}

// SlugConflictError reports a slug collision within a tenant scope.
type SlugConflictError struct {
	Slug     string
	TenantID *uuid.UUID
}

func (e *SlugConflictError) Error() string {
	if e == nil {
		return ErrSlugExists.Error()
	}
	if e.TenantID == nil {
		return fmt.Sprintf("%s: slug=%s scope=master", ErrSlugExists.Error(), e.Slug)
	}
	return fmt.Sprintf("%s: slug=%s tenant=%s", ErrSlugExists.Error(), e.Slug, e.TenantID)
}

func (e *SlugConflictError) Unwrap() error {
	return ErrSlugExists
}

// LayoutValidationError surfaces layout document schema violations.
type LayoutValidationError struct {
	Issues []string
	Cause  error
}

func (e *LayoutValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		if e != nil && e.Cause != nil {
			return fmt.Sprintf("%s: %v", ErrLayoutInvalid.Error(), e.Cause)
		}
		return ErrLayoutInvalid.Error()
	}
	return fmt.Sprintf("%s: %s", ErrLayoutInvalid.Error(), strings.Join(e.Issues, "; "))
}

func (e *LayoutValidationError) Unwrap() error {
	return ErrLayoutInvalid
}
