package enrollments

import (
	"errors"
	"net/http"
)

// Kind classifies an enrollment failure.
type Kind string

const (
	KindTripNotFound     Kind = "TRIP_NOT_FOUND"
	KindClientNotFound   Kind = "CLIENT_NOT_FOUND"
	KindAlreadyEnrolled  Kind = "ALREADY_ENROLLED"
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindNotEnrolled      Kind = "NOT_ENROLLED"
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
)

const (
	MessageRegistered   = "client registered for trip"
	MessageUnregistered = "client unregistered from trip"
)

var kindInfo = map[Kind]struct {
	status  int
	message string
}{
	KindTripNotFound:     {http.StatusNotFound, "trip does not exist"},
	KindClientNotFound:   {http.StatusNotFound, "client does not exist"},
	KindAlreadyEnrolled:  {http.StatusConflict, "client is already registered for this trip"},
	KindCapacityExceeded: {http.StatusConflict, "no free places left on this trip"},
	KindNotEnrolled:      {http.StatusNotFound, "client is not registered for this trip"},
	KindStoreUnavailable: {http.StatusServiceUnavailable, "store unavailable"},
}

// Error is an application-layer error that can be mapped to an HTTP response.
// Business-rule failures carry no Err; StoreUnavailable wraps the store failure.
type Error struct {
	Status  int
	Code    string
	Kind    Kind
	Message string
	Details map[string]any

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether the caller may retry the same request.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindStoreUnavailable
}

func newError(kind Kind, details map[string]any) *Error {
	info := kindInfo[kind]
	return &Error{
		Status:  info.status,
		Code:    string(kind),
		Kind:    kind,
		Message: info.message,
		Details: details,
	}
}

func storeUnavailable(err error) *Error {
	e := newError(KindStoreUnavailable, nil)
	e.Err = err
	return e
}

// KindOf returns the Kind of err, if err is or wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind, true
	}
	return "", false
}

// MessageFor returns the fixed message for kind.
func MessageFor(kind Kind) string {
	return kindInfo[kind].message
}
