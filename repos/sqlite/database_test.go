package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juho05/paw-id/repos"
)

func TestMain(m *testing.M) {
	os.Setenv("AUTO_MIGRATE", "true")
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) repos.DB {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestTokenReplace(t *testing.T) {
	db := newTestDB(t)
	tokenRepo := db.NewTokenRepository()

	_, err := tokenRepo.Create(context.Background(), repos.TokenVerifyEmail, "key", []byte("hash1"), "", time.Hour)
	require.NoError(t, err)
	_, err = tokenRepo.Create(context.Background(), repos.TokenVerifyEmail, "key", []byte("hash2"), "", time.Hour)
	require.NoError(t, err)

	token, err := tokenRepo.Find(context.Background(), repos.TokenVerifyEmail, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash2"), token.ValueHash)

	_, err = tokenRepo.FindByValue(context.Background(), repos.TokenVerifyEmail, []byte("hash1"))
	assert.ErrorIs(t, err, repos.ErrNoRecord)
	_, err = tokenRepo.FindByValue(context.Background(), repos.TokenVerifyEmail, []byte("hash2"))
	assert.NoError(t, err)
}

func TestTokenCategoriesAreIndependent(t *testing.T) {
	db := newTestDB(t)
	tokenRepo := db.NewTokenRepository()

	_, err := tokenRepo.Create(context.Background(), repos.TokenVerifyEmail, "key", []byte("hash1"), "", time.Hour)
	require.NoError(t, err)
	_, err = tokenRepo.Create(context.Background(), repos.TokenChangeEmail, "key", []byte("hash2"), "new@example.com", time.Hour)
	require.NoError(t, err)

	verify, err := tokenRepo.Find(context.Background(), repos.TokenVerifyEmail, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash1"), verify.ValueHash)

	change, err := tokenRepo.Find(context.Background(), repos.TokenChangeEmail, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash2"), change.ValueHash)
	assert.Equal(t, "new@example.com", change.Data)
}

func TestTokenFindReturnsExpired(t *testing.T) {
	db := newTestDB(t)
	tokenRepo := db.NewTokenRepository()

	_, err := tokenRepo.Create(context.Background(), repos.TokenResetPassword, "owner@example.com", []byte("hash"), "", -time.Minute)
	require.NoError(t, err)

	token, err := tokenRepo.Find(context.Background(), repos.TokenResetPassword, "owner@example.com")
	require.NoError(t, err)
	assert.True(t, token.Expires.Before(time.Now()))
}

func TestTokenDelete(t *testing.T) {
	db := newTestDB(t)
	tokenRepo := db.NewTokenRepository()

	_, err := tokenRepo.Create(context.Background(), repos.TokenVerifyEmail, "key", []byte("hash"), "", time.Hour)
	require.NoError(t, err)

	require.NoError(t, tokenRepo.Delete(context.Background(), repos.TokenVerifyEmail, "key"))
	_, err = tokenRepo.Find(context.Background(), repos.TokenVerifyEmail, "key")
	assert.ErrorIs(t, err, repos.ErrNoRecord)

	err = tokenRepo.Delete(context.Background(), repos.TokenVerifyEmail, "key")
	assert.ErrorIs(t, err, repos.ErrNoRecord)
}

func TestCodeCreateBatch(t *testing.T) {
	db := newTestDB(t)
	codeRepo := db.NewCodeRepository()

	require.NoError(t, codeRepo.CreateBatch(context.Background(), []string{"AAAAAAAA", "BBBBBBBB", "CCCCCCCC"}))

	count, err := codeRepo.CountUnclaimed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	exists, err := codeRepo.Exists(context.Background(), "AAAAAAAA")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = codeRepo.Exists(context.Background(), "DDDDDDDD")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCodeCreateBatchAtomic(t *testing.T) {
	db := newTestDB(t)
	codeRepo := db.NewCodeRepository()

	require.NoError(t, codeRepo.CreateBatch(context.Background(), []string{"AAAAAAAA"}))

	// The second code collides, so nothing from the batch may be stored.
	err := codeRepo.CreateBatch(context.Background(), []string{"BBBBBBBB", "AAAAAAAA"})
	require.ErrorIs(t, err, repos.ErrExists)

	exists, err := codeRepo.Exists(context.Background(), "BBBBBBBB")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCodeClaim(t *testing.T) {
	db := newTestDB(t)
	codeRepo := db.NewCodeRepository()
	petRepo := db.NewPetRepository()
	userRepo := db.NewUserRepository()

	user, err := userRepo.Create(context.Background(), "Test User", "owner@example.com", []byte("hash"))
	require.NoError(t, err)
	require.NoError(t, codeRepo.CreateBatch(context.Background(), []string{"AAAAAAAA"}))

	now := time.Now()
	pet := &repos.PetModel{
		ID:        "AAAAAAAA",
		CreatedAt: now,
		OwnerID:   user.ID,
		Name:      "Bella",
	}
	require.NoError(t, codeRepo.Claim(context.Background(), "AAAAAAAA", user.ID, now, pet))

	code, err := codeRepo.Find(context.Background(), "AAAAAAAA")
	require.NoError(t, err)
	assert.True(t, code.Claimed)
	require.NotNil(t, code.ClaimedBy)
	assert.Equal(t, user.ID, *code.ClaimedBy)
	require.NotNil(t, code.ClaimedAt)

	stored, err := petRepo.Find(context.Background(), "AAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.OwnerID)
	assert.Equal(t, "Bella", stored.Name)

	count, err := codeRepo.CountUnclaimed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCodeClaimOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	codeRepo := db.NewCodeRepository()
	petRepo := db.NewPetRepository()
	userRepo := db.NewUserRepository()

	first, err := userRepo.Create(context.Background(), "First", "first@example.com", []byte("hash"))
	require.NoError(t, err)
	second, err := userRepo.Create(context.Background(), "Second", "second@example.com", []byte("hash"))
	require.NoError(t, err)
	require.NoError(t, codeRepo.CreateBatch(context.Background(), []string{"AAAAAAAA"}))

	now := time.Now()
	require.NoError(t, codeRepo.Claim(context.Background(), "AAAAAAAA", first.ID, now, &repos.PetModel{
		ID: "AAAAAAAA", CreatedAt: now, OwnerID: first.ID, Name: "Bella",
	}))

	// The conditional update matches no row, so no second pet appears.
	err = codeRepo.Claim(context.Background(), "AAAAAAAA", second.ID, now, &repos.PetModel{
		ID: "AAAAAAAA", CreatedAt: now, OwnerID: second.ID, Name: "Luna",
	})
	require.ErrorIs(t, err, repos.ErrNoRecord)

	pet, err := petRepo.Find(context.Background(), "AAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, first.ID, pet.OwnerID)
}

func TestCodeClaimUnknownCode(t *testing.T) {
	db := newTestDB(t)
	codeRepo := db.NewCodeRepository()
	userRepo := db.NewUserRepository()

	user, err := userRepo.Create(context.Background(), "Test User", "owner@example.com", []byte("hash"))
	require.NoError(t, err)

	now := time.Now()
	err = codeRepo.Claim(context.Background(), "AAAAAAAA", user.ID, now, &repos.PetModel{
		ID: "AAAAAAAA", CreatedAt: now, OwnerID: user.ID, Name: "Bella",
	})
	assert.ErrorIs(t, err, repos.ErrNoRecord)
}

func TestRateLimitIncrement(t *testing.T) {
	db := newTestDB(t)
	rateLimitRepo := db.NewRateLimitRepository()

	now := time.Now()
	window := 15 * time.Minute

	for i := 1; i <= 3; i++ {
		count, windowStart, err := rateLimitRepo.Increment(context.Background(), "owner@example.com", now, window)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Equal(t, now.Unix(), windowStart.Unix())
	}

	// A different key counts separately.
	count, _, err := rateLimitRepo.Increment(context.Background(), "other@example.com", now, window)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRateLimitWindowReset(t *testing.T) {
	db := newTestDB(t)
	rateLimitRepo := db.NewRateLimitRepository()

	now := time.Now()
	window := 15 * time.Minute

	for i := 0; i < 5; i++ {
		_, _, err := rateLimitRepo.Increment(context.Background(), "owner@example.com", now, window)
		require.NoError(t, err)
	}

	later := now.Add(window + time.Second)
	count, windowStart, err := rateLimitRepo.Increment(context.Background(), "owner@example.com", later, window)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, later.Unix(), windowStart.Unix())
}

func TestUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	userRepo := db.NewUserRepository()

	_, err := userRepo.Create(context.Background(), "First", "owner@example.com", []byte("hash"))
	require.NoError(t, err)
	_, err = userRepo.Create(context.Background(), "Second", "owner@example.com", []byte("hash"))
	assert.ErrorIs(t, err, repos.ErrDuplicateEmail)
}

func TestUserUpdateEmail(t *testing.T) {
	db := newTestDB(t)
	userRepo := db.NewUserRepository()

	user, err := userRepo.Create(context.Background(), "Test User", "owner@example.com", []byte("hash"))
	require.NoError(t, err)

	require.NoError(t, userRepo.UpdateEmail(context.Background(), user.ID, "new@example.com"))

	updated, err := userRepo.Find(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.True(t, updated.EmailConfirmed)
}
