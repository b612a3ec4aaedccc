package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, "taskmanager")

	token, err := m.Issue("user-123", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "taskmanager", claims.Issuer)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, "taskmanager")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.Issue("user-123", "alice")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, "taskmanager")
	token, err := m.Issue("user-123", "alice")
	require.NoError(t, err)

	tests := []struct {
		name    string
		manager *TokenManager
		token   string
	}{
		{"garbage", m, "not.a.token"},
		{"empty", m, ""},
		{"other secret", NewTokenManager("other-secret", time.Hour, "taskmanager"), token},
		{"other issuer", NewTokenManager("test-secret", time.Hour, "someone-else"), token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.manager.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	noSubject, err := m.Issue("", "ghost")
	require.NoError(t, err)
	_, err = m.Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
