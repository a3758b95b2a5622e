package backend

import (
	"errors"
	"net/http"
)

// ErrUnavailable wraps transport-level failures (connection refused, DNS,
// timeouts) after all retries are spent.
var ErrUnavailable = errors.New("backend unreachable")

// RequestError carries a non-success response. Message is the server's own
// text and is surfaced to the user verbatim.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized
}
