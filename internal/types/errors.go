package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Workflow errors
var (
	// ErrNoSeeds is returned when a basis yields no usable seed
	ErrNoSeeds = errors.New("no valid seeds")

	// ErrTooManySeeds is returned when more than MaxSeeds seeds are supplied
	ErrTooManySeeds = errors.New("too many seeds")

	// ErrSeedTypeMismatch is returned when a seed does not match the request's seed type
	ErrSeedTypeMismatch = errors.New("seed type mismatch")

	// ErrNoTracks is returned when no recommendation survives filtering
	ErrNoTracks = errors.New("no tracks available with current options")

	// ErrNotAuthenticated is returned when a Spotify call is made before OAuth completes
	ErrNotAuthenticated = errors.New("user not authenticated to Spotify")

	// ErrSelectionAborted is returned when the operator exhausts all selection attempts
	ErrSelectionAborted = errors.New("selection aborted")
)

// APIError is a fatal Spotify API failure.
type APIError struct {
	Domain   string
	Expected int
	Actual   int
	Reason   string
	Err      error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: expected status %d, got %d: %s", e.Domain, e.Expected, e.Actual, e.Reason)
	if e.Actual == http.StatusUnauthorized {
		msg += " (authorization expired or revoked, run 'spotseed auth')"
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ValidationError reports bad operator input.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
