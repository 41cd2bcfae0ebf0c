package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingClientID is returned when the OAuth client ID is not provided.
	ErrMissingClientID = errors.New("oauth: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not provided.
	ErrMissingClientSecret = errors.New("oauth: missing client secret")

	// ErrExchangeFailed is returned when the code-for-token exchange fails.
	ErrExchangeFailed = errors.New("oauth: code exchange failed")

	// ErrNilResponse is returned when the OAuth provider returns a nil response.
	ErrNilResponse = errors.New("oauth: nil response from provider")

	// ErrFetchFailed is returned when fetching data from the OAuth provider fails.
	ErrFetchFailed = errors.New("oauth: failed to fetch from provider")

	// ErrRequestFailed is returned when the OAuth provider returns a non-OK status.
	ErrRequestFailed = errors.New("oauth: request returned non-OK status")

	// ErrDecodeFailed is returned when decoding the OAuth provider response fails
	// or the response is missing required fields.
	ErrDecodeFailed = errors.New("oauth: failed to decode response")
)

// ExchangeError carries the provider's HTTP status and response body
// from a failed token exchange. It unwraps to ErrExchangeFailed so
// callers can classify with errors.Is and inspect with errors.As.
type ExchangeError struct {
	StatusCode int
	Body       []byte
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth: code exchange failed: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return ErrExchangeFailed
}
