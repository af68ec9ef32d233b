package client

import "fmt"

// APIError is the normalized error every call returns on a non-2xx response.
// Message prefers the server's "detail" field; StatusCode is 0 when the
// request never reached the server at all. Details carries whatever else the
// server said: the parsed JSON body when it decodes, the raw body otherwise,
// or the underlying transport error for network-level failures.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
	Details    any
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("dataroom: request failed: %s", e.Message)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("dataroom: %s (status %d, request %s)", e.Message, e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("dataroom: %s (status %d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports a 401 response.
func (e *APIError) IsUnauthorized() bool {
	return e != nil && e.StatusCode == 401
}

// IsNDARequired reports that the server refused the call pending an NDA
// signature.
func (e *APIError) IsNDARequired() bool {
	return e != nil && e.StatusCode == 403 && e.Message == "nda_required"
}

// IsNotFound reports a 404 response.
func (e *APIError) IsNotFound() bool {
	return e != nil && e.StatusCode == 404
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.IsUnauthorized()
}

// IsNDARequired reports whether the server refused the call pending an NDA
// signature.
func IsNDARequired(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.IsNDARequired()
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.IsNotFound()
}
