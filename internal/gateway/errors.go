package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var ErrDecode = errors.New("malformed provider response")

// NetworkError reports that no HTTP response was obtained (DNS, timeout, refused connection).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError reports a non-2xx response from the event API.
type APIError struct {
	Status  int
	Message string
	// Code is the provider error code when the body carries one (e.g. "DIS1004").
	Code string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.Status, e.Code)
	}

	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func newAPIError(status int, body []byte) *APIError {
	text := http.StatusText(status)
	if text == "" {
		text = fmt.Sprintf("status %d", status)
	}

	e := &APIError{
		Status:  status,
		Message: "API request failed: " + text,
	}

	// Discovery API uses two error shapes depending on which layer rejected the call.
	if code := gjson.GetBytes(body, "errors.0.code"); code.Exists() {
		e.Code = code.String()
	} else if code := gjson.GetBytes(body, "fault.detail.errorcode"); code.Exists() {
		e.Code = code.String()
	}

	return e
}

// IsNetworkError reports whether err carries a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// AsAPIError returns the *APIError carried by err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}

	return nil, false
}
