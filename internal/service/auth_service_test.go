package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/college-connect/internal/model"
)

func TestAuthService_SignUpAndSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	auth := env.svc.Auth

	acc, profile, err := auth.SignUp(ctx, "jane@state.edu", "secret1", "Jane")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, profile.ID)
	assert.Equal(t, "Jane", profile.FullName)

	_, _, err = auth.SignUp(ctx, "jane@state.edu", "secret1", "Jane")
	assert.ErrorIs(t, err, ErrDuplicateUser)

	res, err := auth.SignIn(ctx, "jane@state.edu", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.AccessToken)
	assert.Equal(t, profile.UserID, res.Profile.UserID)

	uid, err := auth.Authenticate(ctx, res.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, uid)
}

func TestAuthService_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	auth := env.svc.Auth

	_, _, err := auth.SignUp(ctx, "jane@gmail.com", "secret1", "Jane")
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = auth.SignUp(ctx, "jane@state.edu", "123", "Jane")
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = auth.SignUp(ctx, "jane@state.edu", "secret1", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = auth.SignIn(ctx, "nobody@state.edu", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = auth.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// failingProfiles 前 n 次 Create 返回错误
type failingProfiles struct {
	ProfileService
	failCreates int
}

func (f *failingProfiles) Create(ctx context.Context, userID, email, fullName string) (*model.UserProfile, error) {
	if f.failCreates > 0 {
		f.failCreates--
		return nil, errStoreDown
	}
	return f.ProfileService.Create(ctx, userID, email, fullName)
}

func TestAuthService_SignUpRetryCreatesMissingProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	auth := NewAuthService(env.gw, &failingProfiles{ProfileService: env.svc.Profiles, failCreates: 1})

	_, _, err := auth.SignUp(ctx, "jane@state.edu", "secret1", "Jane")
	require.ErrorIs(t, err, errStoreDown)

	_, _, err = auth.SignUp(ctx, "jane@state.edu", "wrong-pass", "Jane")
	assert.ErrorIs(t, err, ErrDuplicateUser, "another password cannot take over the account")

	acc, profile, err := auth.SignUp(ctx, "jane@state.edu", "secret1", "Jane")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, profile.ID)
	assert.Equal(t, "Jane", profile.FullName)

	_, _, err = auth.SignUp(ctx, "jane@state.edu", "secret1", "Jane")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestAuthService_SignInCreatesMissingProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	auth := NewAuthService(env.gw, &failingProfiles{ProfileService: env.svc.Profiles, failCreates: 1})

	_, _, err := auth.SignUp(ctx, "jane@state.edu", "secret1", "Jane")
	require.ErrorIs(t, err, errStoreDown)

	res, err := auth.SignIn(ctx, "jane@state.edu", "secret1")
	require.NoError(t, err)
	require.NotNil(t, res.Profile)
	assert.Equal(t, res.Session.Account.ID, res.Profile.ID)
	assert.Equal(t, "jane@state.edu", res.Profile.Email)

	_, err = auth.SignIn(ctx, "jane@state.edu", "wrong-pass")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
