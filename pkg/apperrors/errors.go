package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidEntityType = errors.New("invalid lookup type")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidName       = errors.New("name is required")
)
