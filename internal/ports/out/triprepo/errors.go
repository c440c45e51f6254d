package triprepo

import "errors"

var (
	// ErrNotFound indicates the requested trip does not exist.
	ErrNotFound = errors.New("trip not found")

	// ErrAlreadyExists is returned when seeding a trip whose ID is taken.
	ErrAlreadyExists = errors.New("trip already exists")
)
