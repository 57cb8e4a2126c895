// internal/identity/identity_test.go
package identity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, salt, err := hashPassword("SecurePass123!")
	require.NoError(t, err)

	ok, err := verifyPassword("SecurePass123!", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("WrongPass", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashUsesFreshSalt(t *testing.T) {
	hash1, salt1, err := hashPassword("same-password")
	require.NoError(t, err)
	hash2, salt2, err := hashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := newTokenIssuer([]byte("test-secret"), time.Hour)
	user := &User{ID: uuid.New(), Email: "reader@example.com", DisplayName: "Reader"}

	token, err := issuer.issue(user)
	require.NoError(t, err)

	claims, err := issuer.parse(token)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, "Reader", claims.DisplayName)
	assert.Equal(t, user.ID.String(), claims.Subject)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTokenIssuer([]byte("test-secret"), time.Hour)
	token, err := issuer.issue(&User{ID: uuid.New(), Email: "reader@example.com"})
	require.NoError(t, err)

	other := newTokenIssuer([]byte("different-secret"), time.Hour)
	_, err = other.parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsExpired(t *testing.T) {
	issuer := newTokenIssuer([]byte("test-secret"), -time.Minute)
	token, err := issuer.issue(&User{ID: uuid.New(), Email: "reader@example.com"})
	require.NoError(t, err)

	_, err = issuer.parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMessageMapsKnownErrors(t *testing.T) {
	assert.Equal(t, "This email is already registered!", Message(ErrEmailInUse))
	assert.Equal(t, "Wrong password. Try again!", Message(ErrWrongPassword))

	// Wrapped errors still map.
	wrapped := fmt.Errorf("register: %w", ErrWeakPassword)
	assert.Equal(t, "Password must be at least 6 characters!", Message(wrapped))

	assert.Equal(t, "Something went wrong. Please try again!", Message(errors.New("driver: bad connection")))
}

func TestRoleResolutionStates(t *testing.T) {
	pending := RolePending()
	_, ok := pending.Resolved()
	assert.False(t, ok)
	assert.False(t, pending.Failed())

	failed := RoleFailed()
	_, ok = failed.Resolved()
	assert.False(t, ok)
	assert.True(t, failed.Failed())

	resolved := RoleResolved(RoleLibrarian)
	role, ok := resolved.Resolved()
	assert.True(t, ok)
	assert.Equal(t, RoleLibrarian, role)
}
