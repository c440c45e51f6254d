package clientrepo

import (
	"context"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
)

// Client is the persistence shape used by the client repository.
// It is an internal record, not an HTTP DTO.
type Client struct {
	ID domain.ClientID

	FirstName  string
	LastName   string
	Email      string
	Phone      string
	NationalID string
}

// Reader is the read side the enrollment core consumes.
type Reader interface {
	GetByID(ctx context.Context, id domain.ClientID) (Client, error)
	Exists(ctx context.Context, id domain.ClientID) (bool, error)
}

// Repository provides access to persisted clients.
type Repository interface {
	Reader

	// Create stores c and returns the assigned ID. c.ID is ignored.
	Create(ctx context.Context, c Client) (domain.ClientID, error)
}
