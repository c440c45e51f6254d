package trips

import "net/http"

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any

	// Err is the store failure behind a 503, if any.
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

func (e *Error) Retryable() bool {
	return e != nil && e.Status == http.StatusServiceUnavailable
}

func tripNotFound(id int64) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    "TRIP_NOT_FOUND",
		Message: "trip does not exist",
		Details: map[string]any{"tripId": id},
	}
}

func storeUnavailable(err error) *Error {
	return &Error{
		Status:  http.StatusServiceUnavailable,
		Code:    "STORE_UNAVAILABLE",
		Message: "store unavailable",
		Err:     err,
	}
}
