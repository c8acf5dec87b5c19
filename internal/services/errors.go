package services

import "errors"

// Service-level errors. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("not allowed to modify this property")
	ErrPropertyNotFound       = errors.New("property not found")
	ErrAssetNotFound          = errors.New("asset not found")
	ErrJobNotFound            = errors.New("media job not found")
	ErrConflict               = errors.New("conflicts with an existing record")
	ErrDependencyConflict     = errors.New("property is still referenced by other records")
	ErrCatalogUnavailable     = errors.New("catalog is unavailable")
)
