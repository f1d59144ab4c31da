package pages

import plpages "github.com/goliatone/go-pagelayout/pages"

// Aliases into the public contract package so the implementation reads
// against a single set of names.
type (
	Page              = plpages.Page
	PageLayout        = plpages.PageLayout
	Scope             = plpages.Scope
	Service           = plpages.Service
	CreatePageRequest = plpages.CreatePageRequest
	ListPagesRequest  = plpages.ListPagesRequest
	UpdatePageRequest = plpages.UpdatePageRequest
	UpdateSlugRequest = plpages.UpdateSlugRequest
	DeletePageRequest = plpages.DeletePageRequest
	EnsurePageRequest = plpages.EnsurePageRequest

	PageNotFoundError = plpages.PageNotFoundError
	SlugConflictError = plpages.SlugConflictError
	MasterWriteError  = plpages.MasterWriteError
)

var (
	ErrPageNameRequired  = plpages.ErrPageNameRequired
	ErrSlugRequired      = plpages.ErrSlugRequired
	ErrSlugInvalid       = plpages.ErrSlugInvalid
	ErrSlugExists        = plpages.ErrSlugExists
	ErrPageNotFound      = plpages.ErrPageNotFound
	ErrMasterReadOnly    = plpages.ErrMasterReadOnly
	ErrTenantRequired    = plpages.ErrTenantRequired
	ErrTenantForbidden   = plpages.ErrTenantForbidden
	ErrPageIDInvalid     = plpages.ErrPageIDInvalid
	ErrPageTypeMismatch  = plpages.ErrPageTypeMismatch
	ErrStatusUnsupported = plpages.ErrStatusUnsupported
)

const (
	StatusDraft     = plpages.StatusDraft
	StatusPublished = plpages.StatusPublished
	TypePage        = plpages.TypePage
	TypeHeader      = plpages.TypeHeader
	TypeFooter      = plpages.TypeFooter
	TypeLegal       = plpages.TypeLegal
	LanguageDefault = plpages.LanguageDefault
	ThemeCustom     = plpages.ThemeCustom
)
