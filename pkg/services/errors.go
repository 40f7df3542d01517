package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedPayload = errors.New("unexpected response payload")
	ErrTooManyFiles      = errors.New("too many files in one upload")
)

/*
NetworkError is returned for any failed call to the gallery backend: transport
failures, non-2xx statuses and payloads that do not match the expected schema.
*/
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned status %d: %v", e.Op, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

/*
DecodeError means a cover source could not be read as an image.
*/
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("error decoding image (%s): %v", e.ContentType, e.Err)
	}

	return fmt.Sprintf("error decoding image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
