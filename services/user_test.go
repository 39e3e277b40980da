package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juho05/paw-id/repos"
)

func newUserTestEnv() (*authTestEnv, UserService) {
	env := newAuthTestEnv()
	return env, NewUserService(env.userRepo, env.service)
}

func TestSetAdmin(t *testing.T) {
	env, service := newUserTestEnv()
	user := env.createUser(t, "owner@example.com", "password123")

	require.NoError(t, service.SetAdmin(context.Background(), "owner@example.com", true))
	updated, err := env.userRepo.Find(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, updated.Admin)

	require.NoError(t, service.SetAdmin(context.Background(), user.ID.String(), false))
	updated, err = env.userRepo.Find(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, updated.Admin)
}

func TestSetAdminUnknownUser(t *testing.T) {
	_, service := newUserTestEnv()

	err := service.SetAdmin(context.Background(), "nobody@example.com", true)
	assert.ErrorIs(t, err, repos.ErrNoRecord)
}

func TestDeleteUser(t *testing.T) {
	env, service := newUserTestEnv()
	user := env.createUser(t, "owner@example.com", "password123")

	err := service.Delete(context.Background(), user.ID, "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.userRepo.Find(context.Background(), user.ID)
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), user.ID, "password123"))
	_, err = env.userRepo.Find(context.Background(), user.ID)
	assert.ErrorIs(t, err, repos.ErrNoRecord)
}
