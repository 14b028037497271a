package image

import (
	"errors"
	"fmt"
)

// FetchError reports a failure to retrieve image bytes: a network error, a
// timeout, a non-2xx response or an unsupported URL scheme.
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", shortURL(e.URL), e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", shortURL(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError reports bytes that could not be turned into pixels: invalid
// base64 in a data URI or an unknown/corrupt image format.
type DecodeError struct {
	URL    string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode %s (format: %s): %v", shortURL(e.URL), e.Format, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", shortURL(e.URL), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is, or wraps, a *FetchError.
func IsFetchError(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// shortURL keeps error messages readable when the URL is a multi-kilobyte data URI.
func shortURL(url string) string {
	const maxLen = 64
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen] + "..."
}
