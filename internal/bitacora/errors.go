package bitacora

import (
	"fmt"
	"net/http"
)

// RemoteStatusError is returned when the service answers with anything but 200.
type RemoteStatusError struct {
	StatusCode int
	Body       string
}

func (e *RemoteStatusError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("bitacora: remote status %d", e.StatusCode)
	}
	return fmt.Sprintf("bitacora: remote status %d %s", e.StatusCode, text)
}

// TransportError covers connectivity failures, timeouts and bodies that are
// not an array of movements. Op is "request", "read" or "decode".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bitacora: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
