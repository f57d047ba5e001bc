package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", 1, 7)

	access, err := m.GenerateToken(7, "alice", "STAFF")
	require.NoError(t, err)
	claims, err := m.VerifyKind(access, KindAccess)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "STAFF", claims.Role)

	_, err = m.VerifyKind(access, KindRefresh)
	assert.True(t, errors.Is(err, ErrWrongKind))

	refresh, err := m.GenerateRefreshToken(7, "alice", "STAFF")
	require.NoError(t, err)
	claims, err = m.VerifyKind(refresh, KindRefresh)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	tok, err := NewJWTManager("one", 1, 1).GenerateToken(1, "bob", "USER")
	require.NoError(t, err)

	_, err = NewJWTManager("two", 1, 1).VerifyToken(tok)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", 0, 0)
	tok, err := m.GenerateToken(1, "bob", "USER")
	require.NoError(t, err)

	_, err = m.VerifyToken(tok)
	assert.Error(t, err)
}
