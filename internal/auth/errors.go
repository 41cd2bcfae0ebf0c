package auth

import "errors"

// Callback flow errors. Every failure on the callback path is classified
// into exactly one of these so handlers can choose a public representation
// without inspecting provider detail.
var (
	// ErrProviderDenied is returned when the provider reports an error on
	// the callback (e.g., the user declined consent). No network calls are
	// made in this case.
	ErrProviderDenied = errors.New("auth: provider denied authorization")

	// ErrStateMismatch is returned when the callback state is absent,
	// expired, already consumed, or differs from the stored one.
	ErrStateMismatch = errors.New("auth: oauth state missing or mismatched")

	// ErrTokenExchange is returned when the code-for-token exchange fails.
	ErrTokenExchange = errors.New("auth: token exchange failed")

	// ErrProfileFetch is returned when the userinfo request fails.
	ErrProfileFetch = errors.New("auth: profile fetch failed")
)

// ErrorCode maps a callback failure to a short, browser-safe code for the
// frontend redirect. Provider status lines and bodies never leave the logs.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrProviderDenied):
		return "oauth_denied"
	case errors.Is(err, ErrStateMismatch):
		return "invalid_state"
	case errors.Is(err, ErrTokenExchange):
		return "token_exchange_failed"
	case errors.Is(err, ErrProfileFetch):
		return "profile_fetch_failed"
	default:
		return "callback_failed"
	}
}

// publicMessage is the JSON-facing counterpart of ErrorCode.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, ErrProviderDenied):
		return "OAuth authorization was denied"
	case errors.Is(err, ErrStateMismatch):
		return "Invalid OAuth state"
	case errors.Is(err, ErrTokenExchange):
		return "Token exchange failed"
	case errors.Is(err, ErrProfileFetch):
		return "Failed to fetch user profile"
	default:
		return "Google callback failed"
	}
}
