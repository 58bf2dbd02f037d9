package client

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassHTTP represents non-2xx upstream responses.
	ErrorClassHTTP ErrorClass = "http"

	// ErrorClassMalformed represents structurally bad responses: wrong
	// content-type, oversized body, or an unparsable document.
	ErrorClassMalformed ErrorClass = "malformed"
)

// Common errors returned by the client internals.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrBadContentType is returned when the upstream content-type is not
	// the expected JSON format.
	ErrBadContentType = errors.New("unexpected content type")

	// ErrResponseTooLarge is returned when the declared or actual response
	// size exceeds the configured cap.
	ErrResponseTooLarge = errors.New("response exceeds size limit")
)

// FetchError carries the failure class and upstream status for one failed
// fetch. It never escapes the orchestrator's public lookup methods; those
// translate every failure into absence plus a logged diagnostic.
type FetchError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("market %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("market %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// classOf extracts the error class for logging and metrics.
func classOf(err error) ErrorClass {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ErrorClassNetwork
}
