package identity_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigboard/api/identity"
)

func TestNewVerifier(t *testing.T) {
	_, err := identity.NewVerifier("")
	assert.Error(t, err)
}

func TestVerifier(t *testing.T) {
	verifier, err := identity.NewVerifier("secret")
	require.NoError(t, err)
	alice := identity.Identity{UserID: uuid.New(), Name: "Alice", Email: "alice@example.com"}

	t.Run("signed token", func(t *testing.T) {
		token, err := verifier.Sign(alice, time.Hour)
		require.NoError(t, err)

		got, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, alice, *got)
	})

	t.Run("id claim takes precedence", func(t *testing.T) {
		id := uuid.New()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.Claims{
			UserID: id.String(),
			Name:   "Bob",
			Email:  "bob@example.com",
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		got, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, id, got.UserID)
	})

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "empty",
			token: func(t *testing.T) string { return "" },
		},
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "not-a-token" },
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				token, err := verifier.Sign(alice, -time.Minute)
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				other, err := identity.NewVerifier("other")
				require.NoError(t, err)
				token, err := other.Sign(alice, time.Hour)
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "unexpected algorithm",
			token: func(t *testing.T) string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, identity.Claims{
					RegisteredClaims: jwt.RegisteredClaims{Subject: alice.UserID.String()},
				}).SignedString([]byte("secret"))
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "subject is not a uuid",
			token: func(t *testing.T) string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.Claims{
					RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
				}).SignedString([]byte("secret"))
				require.NoError(t, err)
				return token
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token(t))
			assert.ErrorIs(t, err, identity.ErrInvalidToken)
		})
	}
}
