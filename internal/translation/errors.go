package translation

import (
	"errors"
	"fmt"
	"time"
)

// InvalidInputError reports an empty or whitespace-only lookup input.
// No network call is made when it is returned.
type InvalidInputError struct {
	Input string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: word must not be empty"
}

// ConfigError reports a provider that cannot run with its current
// configuration, typically a missing API key.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NetworkError reports a failed request to the upstream API, carrying
// HTTP status metadata when available. StatusCode 0 means the request
// never produced a response.
type NetworkError struct {
	StatusCode int
	Status     string
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("network error: %s", e.Status)
	}
	return fmt.Sprintf("network error: %d %s", e.StatusCode, e.Status)
}

// TimeoutError reports a lookup aborted by the configured request timeout.
type TimeoutError struct {
	Word    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lookup for %q timed out after %v", e.Word, e.Timeout)
}

// ParseError reports a response whose structure could not be used.
type ParseError struct {
	Word   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unusable response for %q: %s", e.Word, e.Reason)
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsInvalidInput reports whether err is, or wraps, an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
