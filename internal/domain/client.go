package domain

// NationalIDLength is the fixed length of Client.NationalID.
const NationalIDLength = 11

// Client is the domain representation of a client who may enroll in trips.
//
// Uniqueness of NationalID is not enforced here.
type Client struct {
	ID ClientID

	FirstName  string
	LastName   string
	Email      string
	Phone      string
	NationalID string
}
