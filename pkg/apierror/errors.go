// Package apierror holds the error kinds returned at the boundary of the
// exchange and chat bot clients.
package apierror

import (
	"fmt"
)

// CodeMissing is reported when an envelope carries no status code at all.
const CodeMissing = -1

// RequestError is a transport level failure: the request could not be sent,
// timed out, or the server answered with a non-2xx status.
type RequestError struct {
	Service    string // "bybit" or "telegram"
	Op         string // endpoint or operation name
	StatusCode int    // 0 when no response was received
	Body       string // raw response body, when one was read
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: http status %d: %s", e.Service, e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ParseError means the response body was not the shape we expected:
// malformed JSON, or a required field that is absent or mistyped.
type ParseError struct {
	Service string
	Reason  string
	Body    string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: parse: %s", e.Service, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += " (body: " + e.Body + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// APIError is an application level rejection reported inside a well-formed
// envelope.
type APIError struct {
	Service string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api error %d: %s", e.Service, e.Code, e.Message)
}
