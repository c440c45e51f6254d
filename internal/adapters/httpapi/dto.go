package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
)

type ErrorResponse struct {
	Error struct {
		Code      string                            `json:"code"`
		Message   string                            `json:"message"`
		Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
		RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
	} `json:"error"`
}

// EnrollmentResponse is the body of a successful register or unregister.
type EnrollmentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type TripSummary struct {
	TripId        int64              `json:"tripId"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	DateFrom      openapi_types.Date `json:"dateFrom"`
	DateTo        openapi_types.Date `json:"dateTo"`
	MaxPeople     int                `json:"maxPeople"`
	EnrolledCount int                `json:"enrolledCount"`
	FreeSlots     int                `json:"freeSlots"`
}

type ListTripsResponse struct {
	Trips []TripSummary `json:"trips"`
}

type GetTripResponse struct {
	Trip TripSummary `json:"trip"`
}

type CreateClientRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NationalId string `json:"nationalId"`
}

type Client struct {
	ClientId   int64               `json:"clientId"`
	FirstName  string              `json:"firstName"`
	LastName   string              `json:"lastName"`
	Email      openapi_types.Email `json:"email"`
	Phone      string              `json:"phone"`
	NationalId string              `json:"nationalId"`
}

type CreateClientResponse struct {
	Client Client `json:"client"`
}

type ClientTrip struct {
	TripId       int64                                 `json:"tripId"`
	Name         string                                `json:"name"`
	Description  string                                `json:"description"`
	DateFrom     openapi_types.Date                    `json:"dateFrom"`
	DateTo       openapi_types.Date                    `json:"dateTo"`
	MaxPeople    int                                   `json:"maxPeople"`
	RegisteredAt openapi_types.Date                    `json:"registeredAt"`
	PaymentDate  nullable.Nullable[openapi_types.Date] `json:"paymentDate"`
}

type ListClientTripsResponse struct {
	Trips []ClientTrip `json:"trips"`
}

func tripSummaryFromDomain(t domain.TripSummary) TripSummary {
	return TripSummary{
		TripId:        int64(t.ID),
		Name:          t.Name,
		Description:   t.Description,
		DateFrom:      dateOf(t.DateFrom.UTC()),
		DateTo:        dateOf(t.DateTo.UTC()),
		MaxPeople:     t.MaxPeople,
		EnrolledCount: t.EnrolledCount,
		FreeSlots:     t.FreeSlots,
	}
}

func clientFromDomain(c domain.Client) Client {
	return Client{
		ClientId:   int64(c.ID),
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      openapi_types.Email(c.Email),
		Phone:      c.Phone,
		NationalId: c.NationalID,
	}
}

func clientTripFromDomain(ct domain.ClientTrip) ClientTrip {
	out := ClientTrip{
		TripId:       int64(ct.ID),
		Name:         ct.Name,
		Description:  ct.Description,
		DateFrom:     dateOf(ct.DateFrom.UTC()),
		DateTo:       dateOf(ct.DateTo.UTC()),
		MaxPeople:    ct.MaxPeople,
		RegisteredAt: dateOf(ct.RegisteredAt.Time()),
	}
	// paymentDate is sent as null until a payment is recorded.
	out.PaymentDate.SetNull()
	if ct.PaymentDate != nil {
		out.PaymentDate.Set(dateOf(ct.PaymentDate.Time()))
	}
	return out
}

// dateOf keeps the calendar day of t and drops the clock.
func dateOf(t time.Time) openapi_types.Date {
	y, m, d := t.Date()
	return openapi_types.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}
