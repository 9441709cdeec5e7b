package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no row has the requested id.
	ErrNotFound = errors.New("article not found")
	// ErrETagMismatch is returned when the stored etag differs from the
	// caller's precondition. Nothing is written.
	ErrETagMismatch = errors.New("etag mismatch")
	// ErrSlugExists is returned when another article already uses the slug.
	ErrSlugExists = errors.New("slug already exists")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
