package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sohbet/pkg/errors"
)

type fakeAuthClient struct {
	mu        sync.Mutex
	uids      map[string]string
	passwords map[string]string
	nextID    int
}

func newFakeAuthClient() *fakeAuthClient {
	return &fakeAuthClient{
		uids:      make(map[string]string),
		passwords: make(map[string]string),
	}
}

func (f *fakeAuthClient) CreateUser(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.uids[email]; exists {
		return "", errors.Conflict("This email is already registered", nil)
	}
	f.nextID++
	uid := fmt.Sprintf("uid-%d", f.nextID)
	f.uids[email] = uid
	f.passwords[email] = password
	return uid, nil
}

func (f *fakeAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	if !strings.HasPrefix(token, "token-") {
		return "", errors.Unauthorized("Invalid or expired token", nil)
	}
	return strings.TrimPrefix(token, "token-"), nil
}

func (f *fakeAuthClient) SignInWithEmailPassword(ctx context.Context, email, password string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, exists := f.uids[email]
	if !exists || f.passwords[email] != password {
		return "", "", errors.Unauthorized("Incorrect email or password", nil)
	}
	return "token-" + uid, uid, nil
}

func newAuthFixture() (*AuthUseCase, *fakeUserRepo, *fakePresence) {
	userRepo := newFakeUserRepo()
	pres := newFakePresence()
	return NewAuthUseCase(newFakeAuthClient(), userRepo, pres), userRepo, pres
}

func TestRegisterCreatesUserDocument(t *testing.T) {
	uc, userRepo, _ := newAuthFixture()
	ctx := context.Background()

	result, err := uc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.False(t, result.ProfileComplete)

	stored, err := userRepo.GetByID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.Empty(t, stored.Username)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := uc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = uc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "other66"})
	assert.True(t, errors.Is(err, errors.CodeConflict))
}

func TestLogin(t *testing.T) {
	uc, userRepo, _ := newAuthFixture()
	ctx := context.Background()

	registered, err := uc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	// Complete the profile so login reports it.
	stored, _ := userRepo.GetByID(ctx, registered.User.ID)
	stored.Username = "Alice"
	require.NoError(t, userRepo.UpsertProfile(ctx, stored))

	result, err := uc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.True(t, result.ProfileComplete)
}

func TestLoginWrongPassword(t *testing.T) {
	uc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := uc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestLogoutFlipsBothStores(t *testing.T) {
	uc, userRepo, pres := newAuthFixture()
	ctx := context.Background()

	result, err := uc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	uid := result.User.ID

	require.NoError(t, pres.Connect(ctx, uid))
	require.NoError(t, userRepo.SetOnline(ctx, uid, true))

	require.NoError(t, uc.Logout(ctx, uid))

	online, _ := pres.IsOnline(ctx, uid)
	assert.False(t, online)
	stored, _ := userRepo.GetByID(ctx, uid)
	assert.False(t, stored.IsOnline)
}
