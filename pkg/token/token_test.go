package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/pkg/token"
)

const testSecret = "test-signing-secret"

var testIdentity = token.Identity{
	Email:    "a@example.com",
	Name:     "A",
	Picture:  "https://example.com/a.png",
	GoogleID: "g1",
}

func TestNewService(t *testing.T) {
	t.Parallel()

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		svc, err := token.NewService("")
		require.ErrorIs(t, err, token.ErrMissingSecret)
		require.Nil(t, svc)
	})

	t.Run("valid secret", func(t *testing.T) {
		t.Parallel()
		svc, err := token.NewService(testSecret)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})
}

func TestService_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := token.NewService(testSecret)
	require.NoError(t, err)

	signed, err := svc.Mint(testIdentity)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "A", claims.Name)
	assert.Equal(t, "https://example.com/a.png", claims.Picture)
	assert.Equal(t, "g1", claims.GoogleID)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, token.DefaultTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestService_Verify(t *testing.T) {
	t.Parallel()

	t.Run("expired token fails even with a valid signature", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		minted, err := token.NewService(testSecret, token.WithClock(func() time.Time { return now.Add(-25 * time.Hour) }))
		require.NoError(t, err)

		signed, err := minted.Mint(testIdentity)
		require.NoError(t, err)

		svc, err := token.NewService(testSecret, token.WithClock(func() time.Time { return now }))
		require.NoError(t, err)

		_, err = svc.Verify(signed)
		require.ErrorIs(t, err, token.ErrTokenExpired)
		require.NotErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("token signed with a different secret is rejected", func(t *testing.T) {
		t.Parallel()

		other, err := token.NewService("another-secret-entirely")
		require.NoError(t, err)
		signed, err := other.Mint(testIdentity)
		require.NoError(t, err)

		svc, err := token.NewService(testSecret)
		require.NoError(t, err)

		_, err = svc.Verify(signed)
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		t.Parallel()

		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "a@example.com",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		svc, err := token.NewService(testSecret)
		require.NoError(t, err)

		_, err = svc.Verify(unsigned)
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("foreign algorithm is rejected even with the right secret", func(t *testing.T) {
		t.Parallel()

		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
			"sub": "a@example.com",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		svc, err := token.NewService(testSecret)
		require.NoError(t, err)

		_, err = svc.Verify(signed)
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("malformed token is rejected", func(t *testing.T) {
		t.Parallel()

		svc, err := token.NewService(testSecret)
		require.NoError(t, err)

		_, err = svc.Verify("not.a.token")
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("token without expiry is rejected", func(t *testing.T) {
		t.Parallel()

		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "a@example.com",
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		svc, err := token.NewService(testSecret)
		require.NoError(t, err)

		_, err = svc.Verify(signed)
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})
}
