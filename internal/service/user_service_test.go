package service

import (
	"context"
	"testing"

	"taskmanager/internal/repo"
	"taskmanager/internal/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService(t *testing.T) {
	svc := NewUserService(repo.NewGormUserRepo(storetest.NewDB(t)), bcrypt.MinCost)
	ctx := context.Background()

	u, err := svc.Register(ctx, " alice ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice", "other")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.ValidateCredentials(ctx, "alice", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.ValidateCredentials(ctx, "alice", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.ValidateCredentials(ctx, "bob", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := svc.Register(ctx, "  ", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("get", func(t *testing.T) {
		got, err := svc.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)

		_, err = svc.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
