package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyPair(t *testing.T) {
	m := NewManager("test-secret", 15*time.Minute, 24*time.Hour)

	access, refresh, err := m.IssuePair(42)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := m.Verify(access, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)

	claims, err = m.Verify(refresh, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	m := NewManager("test-secret", 15*time.Minute, 24*time.Hour)

	_, refresh, err := m.IssuePair(7)
	require.NoError(t, err)

	_, err = m.Verify(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	other := NewManager("other-secret", 15*time.Minute, 24*time.Hour)

	access, _, err := m.IssuePair(7)
	require.NoError(t, err)

	_, err = other.Verify(access, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Hour, 24*time.Hour)

	access, _, err := m.IssuePair(7)
	require.NoError(t, err)

	_, err = m.Verify(access, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
