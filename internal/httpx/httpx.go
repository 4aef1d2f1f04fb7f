package httpx

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPError carries status/body for non-2xx responses.
// The exporter deliberately never retries; callers decide whether a failure
// skips the item, the category, or aborts the run.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 900))
}

// NewError builds an HTTPError from a finished request.
func NewError(method, url string, status int, body []byte) *HTTPError {
	return &HTTPError{
		Method:     method,
		URL:        url,
		StatusCode: status,
		Body:       body,
	}
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// *HTTPError.
func StatusOf(err error) int {
	if herr, ok := err.(*HTTPError); ok {
		return herr.StatusCode
	}
	return 0
}

// IsStatus reports whether err is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	return StatusOf(err) == code
}

// Success reports whether code is in the 2xx range.
func Success(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
