package httpclient

import (
	"errors"
	"fmt"
)

// StatusCodeOf returns the status of a *Error in err's chain.
func StatusCodeOf(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode, true
	}

	return 0, false
}

// Error is returned when the server answered with a non-2xx status.
type Error struct {
	Method     string `json:"method"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Body       []byte `json:"body"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s - %s with status %s", e.Method, e.URL, e.Status)
}
