package server

import (
	"errors"
	"fmt"
)

// Error represents a server lifecycle error
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// ErrorCode represents different types of server errors
type ErrorCode int

const (
	ErrListen ErrorCode = iota + 1
	ErrServe
	ErrShutdown
)

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new server error
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsListenError checks if the server could not bind its port
func IsListenError(err error) bool {
	return hasCode(err, ErrListen)
}
