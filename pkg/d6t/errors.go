package d6t

import (
	"errors"
	"fmt"
)

var (
	// ErrShortResponse indicates the device returned fewer bytes than a
	// full response.
	ErrShortResponse = errors.New("short response")
	// ErrUnknownPolicy indicates an unrecognized short response policy.
	ErrUnknownPolicy = errors.New("unknown policy")
	// ErrNoMeasurement indicates a short response arrived before any
	// good one, so there is nothing to repeat.
	ErrNoMeasurement = errors.New("no measurement")
)

// ShortResponseError reports the actual length of a short response.
type ShortResponseError struct {
	Got  int
	Want int
}

// Error implements error.
func (e *ShortResponseError) Error() string {
	return fmt.Sprintf("short response: got %d bytes, want %d", e.Got, e.Want)
}

// Is matches ErrShortResponse.
func (e *ShortResponseError) Is(target error) bool {
	return target == ErrShortResponse
}
