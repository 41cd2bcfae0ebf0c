package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"authgate/pkg/logger"
	"authgate/pkg/oauth"
	"authgate/pkg/state"
	"authgate/pkg/token"
)

// providerCallTimeout bounds each server-to-server provider call so a slow
// provider cannot stall a callback indefinitely.
const providerCallTimeout = 30 * time.Second

// Callback carries the query parameters the provider sends back.
type Callback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Result is the outcome of a successful callback: the authoritative user
// profile and the gateway's own signed session token. The provider's access
// token is used only to fetch the profile and is never returned.
type Result struct {
	User         *oauth.UserInfo
	SessionToken string
}

// Service orchestrates the OAuth callback sequence: CSRF state validation,
// code exchange, profile retrieval, and session token minting. Each instance
// is immutable after construction and safe for concurrent use; per-callback
// work shares no mutable configuration with other requests.
type Service struct {
	provider    oauth.Provider
	states      state.Store
	tokens      *token.Service
	redirectURI string
	log         *slog.Logger
}

// NewService wires the callback orchestrator. redirectURI must be the exact
// URI used for the authorization URL; the provider enforces equality during
// the code exchange.
func NewService(provider oauth.Provider, states state.Store, tokens *token.Service, redirectURI string, log *slog.Logger) *Service {
	if log == nil {
		log = logger.NewNope()
	}
	return &Service{
		provider:    provider,
		states:      states,
		tokens:      tokens,
		redirectURI: redirectURI,
		log:         log,
	}
}

// BeginLogin generates a fresh CSRF state, stores it against the caller's
// browser session, and returns the provider's authorization URL.
func (s *Service) BeginLogin(ctx context.Context, sessionID string) (string, error) {
	st, err := state.New()
	if err != nil {
		return "", err
	}
	if err := s.states.Put(ctx, sessionID, st); err != nil {
		return "", err
	}
	return s.provider.AuthCodeURL(st), nil
}

// CompleteCallback drives the callback through its stages. Every failure is
// classified under exactly one of the package's flow errors; each provider
// call is attempted exactly once. Client disconnects propagate through ctx
// and abandon the in-flight provider call.
func (s *Service) CompleteCallback(ctx context.Context, sessionID string, cb Callback) (*Result, error) {
	if cb.Error != "" {
		detail := cb.ErrorDescription
		if detail == "" {
			detail = cb.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrProviderDenied, detail)
	}

	ok, err := s.states.TakeIfMatches(ctx, sessionID, cb.State)
	if err != nil {
		return nil, errors.Join(ErrStateMismatch, err)
	}
	if !ok {
		return nil, ErrStateMismatch
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()

	tok, err := s.provider.Exchange(exchangeCtx, cb.Code, s.redirectURI)
	if err != nil {
		s.log.WarnContext(ctx, "token exchange failed", slog.String("error", err.Error()))
		return nil, errors.Join(ErrTokenExchange, err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()

	user, err := s.provider.FetchUserInfo(fetchCtx, tok)
	if err != nil {
		s.log.WarnContext(ctx, "userinfo fetch failed", slog.String("error", err.Error()))
		return nil, errors.Join(ErrProfileFetch, err)
	}

	signed, err := s.tokens.Mint(token.Identity{
		Email:    user.Email,
		Name:     user.Name,
		Picture:  user.Picture,
		GoogleID: user.ID,
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "oauth authentication successful",
		slog.String("provider", s.provider.Name()),
		slog.String("email", user.Email),
	)

	return &Result{User: user, SessionToken: signed}, nil
}

// VerifySession validates a session token and returns its claims.
// Verification is stateless; no revocation list is consulted.
func (s *Service) VerifySession(sessionToken string) (token.Claims, error) {
	return s.tokens.Verify(sessionToken)
}
