package storage

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert hits a unique index
	ErrDuplicate = errors.New("record already exists")
)
