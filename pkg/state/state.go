// Package state generates and stores single-use CSRF tokens for the OAuth
// login round-trip.
//
// A token is created when a login starts, keyed by the caller's browser
// session, and consumed exactly once when the provider calls back. The Store
// contract is an atomic compare-and-delete: two concurrent callbacks racing
// on the same state can never both succeed.
package state

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

// DefaultTTL bounds how long a pending login may sit between the redirect
// to the provider and the callback.
const DefaultTTL = 10 * time.Minute

// tokenBytes is the entropy of a state token. 32 bytes encodes to a
// 43-character URL-safe string.
const tokenBytes = 32

var (
	// ErrGenerateFailed is returned when the system's entropy source fails.
	ErrGenerateFailed = errors.New("state: failed to generate token")

	// ErrStoreFailed is returned when the backing store cannot be reached.
	ErrStoreFailed = errors.New("state: store operation failed")
)

// New returns a cryptographically random, URL-safe state token.
func New() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrGenerateFailed, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Store persists pending login states keyed by browser session.
// Implementations must make TakeIfMatches atomic: the stored state is
// deleted if and only if it matches, and at most one caller observes a match.
type Store interface {
	// Put stores the state for a session, replacing any pending one.
	Put(ctx context.Context, sessionID, state string) error

	// TakeIfMatches atomically compares the stored state and deletes it on
	// match. Returns false when no state is stored or the values differ.
	// A mismatch also removes the stored state so it cannot be retried.
	TakeIfMatches(ctx context.Context, sessionID, state string) (bool, error)
}
