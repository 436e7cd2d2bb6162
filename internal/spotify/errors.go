package spotify

import (
	"errors"

	"github.com/zmb3/spotify/v2"

	"github.com/toozej/spotseed/internal/types"
)

// apiError wraps any Spotify failure as a fatal types.APIError.
func apiError(domain string, expected int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrNotAuthenticated) {
		return err
	}
	e := &types.APIError{
		Domain:   domain,
		Expected: expected,
		Reason:   err.Error(),
		Err:      err,
	}
	var spErr spotify.Error
	if errors.As(err, &spErr) {
		e.Actual = spErr.Status
		e.Reason = spErr.Message
	}
	var spErrPtr *spotify.Error
	if errors.As(err, &spErrPtr) && spErrPtr != nil {
		e.Actual = spErrPtr.Status
		e.Reason = spErrPtr.Message
	}
	return e
}

// statusOf returns the HTTP status carried by a Spotify error, or 0.
func statusOf(err error) int {
	var spErr spotify.Error
	if errors.As(err, &spErr) {
		return spErr.Status
	}
	var spErrPtr *spotify.Error
	if errors.As(err, &spErrPtr) && spErrPtr != nil {
		return spErrPtr.Status
	}
	return 0
}
