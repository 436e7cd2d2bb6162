// Package config provides error definitions for configuration-related errors.
package config

import "errors"

// Configuration validation errors
var (
	// ErrMissingSpotifyClientID is returned when Spotify Client ID is not provided
	ErrMissingSpotifyClientID = errors.New("spotify client ID is required")

	// ErrMissingSpotifyClientSecret is returned when Spotify Client Secret is not provided
	ErrMissingSpotifyClientSecret = errors.New("spotify client secret is required")

	// ErrMissingRedirectURL is returned when the OAuth redirect URL is empty
	ErrMissingRedirectURL = errors.New("spotify redirect URL is required")

	// ErrInvalidConfig wraps every collected validation problem
	ErrInvalidConfig = errors.New("configuration errors")

	// ErrEnvPathTraversal is returned when the .env path escapes the working directory
	ErrEnvPathTraversal = errors.New(".env file path traversal detected")
)
