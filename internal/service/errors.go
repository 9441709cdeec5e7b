package service

import (
	"errors"

	"github.com/multilingual-news-api/internal/repository"
	"github.com/multilingual-news-api/internal/validation"
)

var (
	ErrNotFound     = repository.ErrNotFound
	ErrETagMismatch = repository.ErrETagMismatch
	ErrSlugExists   = repository.ErrSlugExists

	// ErrForbidden is returned when a non-administrator attempts a
	// privileged operation.
	ErrForbidden = errors.New("administrator access required")
)

// ValidationError carries field level messages for a rejected payload
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

// AsValidationError unwraps err into a *ValidationError when possible
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
