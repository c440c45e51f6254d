package clients

import "net/http"

// Error is an application-layer error that can be mapped to an HTTP response.
// Validation and lookup failures carry no Err; store failures wrap their cause.
type Error struct {
	Status  int
	Code    string
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
	return e != nil && e.Status == http.StatusServiceUnavailable
}

func clientNotFound(id int64) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    "CLIENT_NOT_FOUND",
		Message: "client does not exist",
		Details: map[string]any{"clientId": id},
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
