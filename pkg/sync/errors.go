package sync

import "fmt"

// AuthError means credential refresh or exchange failed. Fatal for the
// whole invocation: no metrics are fetched, no notes are written.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError means data retrieval for one date failed after the single
// forced-refresh retry. Isolated to that date.
type FetchError struct {
	Date     string
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s failed: %v", e.Endpoint, e.Date, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PublishError means the note write for one date failed. Isolated to that
// date; partially-written content is not rolled back.
type PublishError struct {
	Date     string
	Filename string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s for %s failed: %v", e.Filename, e.Date, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
