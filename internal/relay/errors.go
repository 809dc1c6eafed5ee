package relay

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-coders/groq-relay/internal/keypool"
)

// Client visible error messages
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgInvalidJSON      = "Invalid JSON body"
	MsgNoKeysConfigured = "Server Configuration Error: No GROQ_API_KEYS found."
	MsgNoValidKeys      = "Server Configuration Error: No valid GROQ keys."
	MsgUpstream         = "Groq API Error"
	MsgInternal         = "Server Internal Error"
)

// ErrorCode represents the kinds of failure the relay reports
type ErrorCode int

const (
	ErrMethodNotAllowed ErrorCode = iota + 1
	ErrInvalidJSON
	ErrNoKeysConfigured
	ErrNoValidKeys
	ErrUpstream
	ErrInternal
)

// Error is a failure that maps onto one HTTP response
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Detail  string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// hasDetail reports whether the response body carries a detail field
func (e *Error) hasDetail() bool {
	return e.Code == ErrUpstream || e.Code == ErrInternal
}

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error  string  `json:"error"`
	Detail *string `json:"detail,omitempty"`
}

// Payload is the JSON body written for e
func (e *Error) Payload() ErrorBody {
	body := ErrorBody{Error: e.Message}
	if e.hasDetail() {
		detail := e.Detail
		body.Detail = &detail
	}
	return body
}

func MethodNotAllowed(method string) *Error {
	return &Error{
		Code:    ErrMethodNotAllowed,
		Status:  http.StatusMethodNotAllowed,
		Message: MsgMethodNotAllowed,
		Err:     fmt.Errorf("method %s", method),
	}
}

func errInvalidBody(body []byte) error {
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return fmt.Errorf("malformed json (%d bytes)", len(body))
}

func InvalidJSON(err error) *Error {
	return &Error{Code: ErrInvalidJSON, Status: http.StatusBadRequest, Message: MsgInvalidJSON, Err: err}
}

// ConfigError maps a key pool failure onto its response
func ConfigError(err error) *Error {
	if errors.Is(err, keypool.ErrNoValidKeys) {
		return &Error{Code: ErrNoValidKeys, Status: http.StatusInternalServerError, Message: MsgNoValidKeys, Err: err}
	}
	return &Error{Code: ErrNoKeysConfigured, Status: http.StatusInternalServerError, Message: MsgNoKeysConfigured, Err: err}
}

// UpstreamError carries the upstream status and its raw body text
func UpstreamError(status int, body string) *Error {
	return &Error{Code: ErrUpstream, Status: status, Message: MsgUpstream, Detail: body}
}

func Internal(err error) *Error {
	return &Error{Code: ErrInternal, Status: http.StatusInternalServerError, Message: MsgInternal, Detail: err.Error(), Err: err}
}

// AsError returns err as an *Error, treating anything unknown as internal
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsConfigError checks if the error comes from a missing or empty key pool
func IsConfigError(err error) bool {
	return hasCode(err, ErrNoKeysConfigured) || hasCode(err, ErrNoValidKeys)
}

// IsUpstreamError checks if the error is a relayed upstream failure
func IsUpstreamError(err error) bool {
	return hasCode(err, ErrUpstream)
}

// IsInternal checks if the error is an unexpected failure
func IsInternal(err error) bool {
	return hasCode(err, ErrInternal)
}
