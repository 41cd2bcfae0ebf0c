// Package oauth implements the OAuth2 authorization code flow against Google.
//
// The package exposes a Provider interface and a GoogleProvider implementation
// covering the three provider-facing operations: generating the authorization
// URL, exchanging an authorization code for tokens, and fetching verified user
// information with the access token.
//
// # Usage
//
//	provider, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
//		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
//		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
//		RedirectURL:  "https://gateway.example.com/auth/google/callback/redirect",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	url := provider.AuthCodeURL(state)
//
//	token, err := provider.Exchange(ctx, code, "")
//	user, err := provider.FetchUserInfo(ctx, token)
//
// Authorization URLs always carry access_type=offline and prompt=consent so
// the provider issues a refresh token; whether the caller stores it is out of
// this package's scope.
//
// # Testing
//
// Use WithHTTPClient to inject a transport that routes provider calls to an
// httptest handler:
//
//	provider, err := oauth.NewGoogleProvider(cfg, oauth.WithHTTPClient(client))
//
// # Error Handling
//
// Sentinel errors use the "oauth:" prefix and support errors.Is. A failed
// token exchange with a provider response yields *ExchangeError, which keeps
// the provider's HTTP status and body and unwraps to ErrExchangeFailed.
package oauth
