package clients

type CreateClientInput struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	NationalID string
}
