package clientrepo

import "errors"

var (
	// ErrNotFound indicates the requested client does not exist.
	ErrNotFound = errors.New("client not found")

	// ErrAlreadyExists indicates a client already exists with the provided ID.
	ErrAlreadyExists = errors.New("client already exists")
)
