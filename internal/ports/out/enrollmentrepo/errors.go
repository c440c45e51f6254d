package enrollmentrepo

import "errors"

var (
	// ErrNotFound indicates no enrollment exists for the (client, trip) pair.
	ErrNotFound = errors.New("enrollment not found")

	// ErrDuplicateKey indicates an enrollment already exists for the (client, trip) pair.
	ErrDuplicateKey = errors.New("enrollment already exists")
)
