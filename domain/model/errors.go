package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for API responses and job records.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation_error"
	KindConfig     ErrorKind = "config_error"
	KindAuth       ErrorKind = "auth_error"
	KindFetch      ErrorKind = "fetch_error"
	KindUpstream   ErrorKind = "upstream_error"
	KindInternal   ErrorKind = "internal_error"
)

// ErrJobNotFound is returned by job repositories for unknown job IDs.
var ErrJobNotFound = errors.New("upload job not found")

// ValidationError reports a malformed or missing request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigError reports missing or invalid process configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Message
}

// AuthError reports a failed refresh token exchange.
type AuthError struct {
	// Status is the token endpoint's HTTP status, zero when no response arrived.
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("token exchange failed (status %d): %s", e.Status, e.Message)
	}
	return "token exchange failed: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failure retrieving a source file.
type FetchError struct {
	URL     string
	Status  int
	Message string
	// TooLarge is set when the source exceeds the configured size limit.
	TooLarge bool
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s failed (status %d): %s", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("fetch %s failed: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClientFault reports whether the failure points at a bad reference supplied by the
// caller rather than at an unavailable source.
func (e *FetchError) ClientFault() bool {
	return e.TooLarge || (e.Status >= 400 && e.Status < 500)
}

// UpstreamError reports a rejection or failure from the video platform.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("youtube rejected the request (status %d): %s", e.Status, e.Message)
	}
	return "youtube request failed: " + e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind of err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	var (
		ve *ValidationError
		ce *ConfigError
		ae *AuthError
		fe *FetchError
		ue *UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ce):
		return KindConfig
	case errors.As(err, &ae):
		return KindAuth
	case errors.As(err, &fe):
		return KindFetch
	case errors.As(err, &ue):
		return KindUpstream
	}
	return KindInternal
}
