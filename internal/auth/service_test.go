package auth

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"authgate/pkg/oauth"
	"authgate/pkg/state"
	"authgate/pkg/token"
)

const testRedirectURI = "http://localhost:8080/auth/google/callback/redirect"

// fakeProvider records which provider calls were made so tests can assert
// that rejected callbacks never reach the network.
type fakeProvider struct {
	mu            sync.Mutex
	exchangeCalls int
	fetchCalls    int
	exchangeErr   error
	fetchErr      error
	user          *oauth.UserInfo
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) AuthCodeURL(st string, _ ...oauth2.AuthCodeOption) string {
	return "https://accounts.google.com/o/oauth2/auth?response_type=code&state=" + url.QueryEscape(st) +
		"&redirect_uri=" + url.QueryEscape(testRedirectURI)
}

func (p *fakeProvider) Exchange(_ context.Context, code, _ string) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchangeCalls++
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "tok123", TokenType: "Bearer"}, nil
}

func (p *fakeProvider) FetchUserInfo(_ context.Context, _ *oauth2.Token) (*oauth.UserInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchCalls++
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	if p.user != nil {
		return p.user, nil
	}
	return &oauth.UserInfo{ID: "g1", Email: "a@example.com", Name: "A", EmailVerified: true}, nil
}

func (p *fakeProvider) calls() (exchange, fetch int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchangeCalls, p.fetchCalls
}

func newTestService(t *testing.T, provider oauth.Provider) (*Service, *token.Service, *state.MemoryStore) {
	t.Helper()

	tokens, err := token.NewService("test-secret-key-at-least-32-bytes!!")
	require.NoError(t, err)

	states := state.NewMemoryStore()
	return NewService(provider, states, tokens, testRedirectURI, nil), tokens, states
}

func TestService_BeginLogin(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc, _, states := newTestService(t, provider)

	authURL, err := svc.BeginLogin(context.Background(), "sess-1")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	st := parsed.Query().Get("state")
	assert.Len(t, st, 43, "expected a 32-byte URL-safe state")

	// The state in the URL is the one stored for the session.
	ok, err := states.TakeIfMatches(context.Background(), "sess-1", st)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_BeginLogin_DistinctStates(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc, _, _ := newTestService(t, provider)

	url1, err := svc.BeginLogin(context.Background(), "sess-1")
	require.NoError(t, err)
	url2, err := svc.BeginLogin(context.Background(), "sess-2")
	require.NoError(t, err)

	assert.NotEqual(t, url1, url2)
}

func TestService_CompleteCallback_HappyPath(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc, tokens, states := newTestService(t, provider)

	require.NoError(t, states.Put(context.Background(), "sess-1", "state-abc"))

	result, err := svc.CompleteCallback(context.Background(), "sess-1", Callback{
		Code:  "auth-code",
		State: "state-abc",
	})
	require.NoError(t, err)
	require.NotNil(t, result.User)

	assert.Equal(t, "a@example.com", result.User.Email)
	assert.Equal(t, "A", result.User.Name)
	assert.Equal(t, "g1", result.User.ID)

	claims, err := tokens.Verify(result.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "a@example.com", claims.Subject)
	assert.Equal(t, "A", claims.Name)
	assert.Equal(t, "g1", claims.GoogleID)

	exchange, fetch := provider.calls()
	assert.Equal(t, 1, exchange)
	assert.Equal(t, 1, fetch)
}

func TestService_CompleteCallback_ProviderDenied(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc, _, states := newTestService(t, provider)

	require.NoError(t, states.Put(context.Background(), "sess-1", "state-abc"))

	_, err := svc.CompleteCallback(context.Background(), "sess-1", Callback{
		Error:            "access_denied",
		ErrorDescription: "User denied access",
	})
	require.ErrorIs(t, err, ErrProviderDenied)
	assert.Contains(t, err.Error(), "User denied access")

	// Denial short-circuits before any state consumption or provider call.
	exchange, fetch := provider.calls()
	assert.Zero(t, exchange)
	assert.Zero(t, fetch)

	ok, err := states.TakeIfMatches(context.Background(), "sess-1", "state-abc")
	require.NoError(t, err)
	assert.True(t, ok, "pending state must survive a provider denial")
}

func TestService_CompleteCallback_StateMismatch(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc, _, states := newTestService(t, provider)

	require.NoError(t, states.Put(context.Background(), "sess-1", "state-abc"))

	_, err := svc.CompleteCallback(context.Background(), "sess-1", Callback{
		Code:  "auth-code",
		State: "state-forged",
	})
	require.ErrorIs(t, err, ErrStateMismatch)

	exchange, _ := provider.calls()
	assert.Zero(t, exchange, "mismatched state must never reach the exchanger")
}

func TestService_CompleteCallback_Replay(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc, _, states := newTestService(t, provider)

	require.NoError(t, states.Put(context.Background(), "sess-1", "state-abc"))

	cb := Callback{Code: "auth-code", State: "state-abc"}
	_, err := svc.CompleteCallback(context.Background(), "sess-1", cb)
	require.NoError(t, err)

	_, err = svc.CompleteCallback(context.Background(), "sess-1", cb)
	require.ErrorIs(t, err, ErrStateMismatch)

	exchange, _ := provider.calls()
	assert.Equal(t, 1, exchange, "replayed callback must not exchange again")
}

func TestService_CompleteCallback_NoPendingState(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc, _, _ := newTestService(t, provider)

	_, err := svc.CompleteCallback(context.Background(), "sess-unknown", Callback{
		Code:  "auth-code",
		State: "state-abc",
	})
	require.ErrorIs(t, err, ErrStateMismatch)

	exchange, _ := provider.calls()
	assert.Zero(t, exchange)
}

func TestService_CompleteCallback_ExchangeFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{exchangeErr: errors.New("invalid_grant")}
	svc, _, states := newTestService(t, provider)

	require.NoError(t, states.Put(context.Background(), "sess-1", "state-abc"))

	_, err := svc.CompleteCallback(context.Background(), "sess-1", Callback{
		Code:  "bad-code",
		State: "state-abc",
	})
	require.ErrorIs(t, err, ErrTokenExchange)

	_, fetch := provider.calls()
	assert.Zero(t, fetch, "failed exchange must not fetch the profile")
}

func TestService_CompleteCallback_ProfileFetchFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{fetchErr: errors.New("userinfo 503")}
	svc, _, states := newTestService(t, provider)

	require.NoError(t, states.Put(context.Background(), "sess-1", "state-abc"))

	_, err := svc.CompleteCallback(context.Background(), "sess-1", Callback{
		Code:  "auth-code",
		State: "state-abc",
	})
	require.ErrorIs(t, err, ErrProfileFetch)
}

func TestService_VerifySession(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc, tokens, _ := newTestService(t, provider)

	signed, err := tokens.Mint(token.Identity{Email: "a@example.com", Name: "A", GoogleID: "g1"})
	require.NoError(t, err)

	claims, err := svc.VerifySession(signed)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Email)

	_, err = svc.VerifySession("not-a-token")
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"provider denied", ErrProviderDenied, "oauth_denied"},
		{"state mismatch", ErrStateMismatch, "invalid_state"},
		{"exchange failed", ErrTokenExchange, "token_exchange_failed"},
		{"profile fetch failed", ErrProfileFetch, "profile_fetch_failed"},
		{"wrapped", errors.Join(ErrTokenExchange, errors.New("502")), "token_exchange_failed"},
		{"unknown", errors.New("boom"), "callback_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}
