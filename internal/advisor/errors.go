package advisor

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyContent  = errors.New("advisor returned empty content")
	ErrNoJSONObject  = errors.New("no JSON object found in advisor reply")
	ErrInvalidJSON   = errors.New("advisor JSON could not be parsed")
	ErrMissingFields = errors.New("advisor JSON is missing required fields")
)

// InputError reports an advisor reply that cannot be used. It is a client
// problem (bad or drifting model output), not an outage.
type InputError struct {
	Err error
	Raw string
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return "unusable advisor reply"
	}
	return fmt.Sprintf("unusable advisor reply: %v", e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// TransportError reports that the advisor could not be reached, answered
// with a non-success status, or timed out.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s advisor request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err carries an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsTransportError reports whether err carries a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
