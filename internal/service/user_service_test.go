package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/identity"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserService_Register_Validation(t *testing.T) {
	t.Parallel()
	svc := NewUserService(noopUserRepo(), noopProvider(), nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "bad name!", Email: "nope", Password: "123"})
	appErr := assertAppErrorCode(t, err, models.CodeValidation)
	assert.Len(t, appErr.Fields, 3)
}

func TestUserService_Register_DuplicateUsername(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.usernameTakenFn = func(context.Context, string, string) (bool, error) { return true, nil }
	signedUp := false
	provider := noopProvider()
	provider.signUpFn = func(context.Context, string, string) (*identity.Identity, error) {
		signedUp = true
		return &identity.Identity{Subject: "x"}, nil
	}
	svc := NewUserService(users, provider, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@example.com", Password: "secret1"})
	appErr := assertAppErrorCode(t, err, models.CodeValidation)
	assert.Equal(t, "Username already exists", appErr.Message)
	assert.False(t, signedUp)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()
	provider := noopProvider()
	provider.signUpFn = func(context.Context, string, string) (*identity.Identity, error) {
		return nil, identity.ErrEmailTaken
	}
	svc := NewUserService(noopUserRepo(), provider, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@example.com", Password: "secret1"})
	appErr := assertAppErrorCode(t, err, models.CodeValidation)
	assert.Equal(t, "Email already registered", appErr.Message)
}

func TestUserService_Register_RollsBackIdentity(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.createFn = func(context.Context, *models.User) error { return errors.New("insert failed") }
	var deleted string
	provider := noopProvider()
	provider.deleteFn = func(_ context.Context, subject string) error {
		deleted = subject
		return nil
	}
	svc := NewUserService(users, provider, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@example.com", Password: "secret1"})
	assertAppErrorCode(t, err, models.CodeInternal)
	assert.Equal(t, "sub-1", deleted)
}

func TestUserService_Register_Success(t *testing.T) {
	t.Parallel()
	var created *models.User
	users := noopUserRepo()
	users.createFn = func(_ context.Context, u *models.User) error {
		created = u
		return nil
	}
	svc := NewUserService(users, noopProvider(), nil)

	profile, err := svc.Register(context.Background(), RegisterInput{
		Username: " alice ", Email: "alice@example.com", Password: "secret1", Name: " Alice ",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", profile.ID)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, models.RoleUser, profile.Role)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "Alice", created.Name)
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()
	provider := noopProvider()
	provider.signInFn = func(_ context.Context, _ string, password string) (*identity.Session, error) {
		if password != "secret1" {
			return nil, identity.ErrInvalidCredentials
		}
		return &identity.Session{AccessToken: "tok", Subject: "sub-9"}, nil
	}
	svc := NewUserService(noopUserRepo(), provider, nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, "a@example.com", "wrong")
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	res, err := svc.Login(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, "sub-9@example.com", res.User.Email)
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.usernameTakenFn = func(_ context.Context, username, _ string) (bool, error) {
		return username == "taken", nil
	}
	var saved *models.User
	users.updateFn = func(_ context.Context, u *models.User) error {
		saved = u
		return nil
	}
	svc := NewUserService(users, noopProvider(), nil)
	ctx := context.Background()

	taken := "taken"
	badPic := "ftp://example.com/me.png"
	_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: "u1", Username: &taken, ProfilePic: &badPic})
	appErr := assertAppErrorCode(t, err, models.CodeValidation)
	assert.Equal(t, []string{"Username already exists", "Profile picture must be an http(s) URL"}, appErr.Fields)
	assert.Nil(t, saved)

	bio := "  hello  "
	pic := "https://cdn.example.com/me.png"
	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: "u1", Bio: &bio, ProfilePic: &pic})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "hello", saved.Bio)
	assert.Equal(t, pic, saved.ProfilePic)
	assert.Equal(t, "user-u1", saved.Username)
}

func TestUserService_ResetPassword(t *testing.T) {
	t.Parallel()
	provider := noopProvider()
	provider.updatePasswordFn = func(_ context.Context, _, oldPassword, _ string) error {
		if oldPassword != "old-pass" {
			return identity.ErrInvalidCredentials
		}
		return nil
	}
	svc := NewUserService(noopUserRepo(), provider, nil)
	ctx := context.Background()

	assertAppErrorCode(t, svc.ResetPassword(ctx, "u", "old-pass", "123"), models.CodeValidation)
	assertAppErrorCode(t, svc.ResetPassword(ctx, "u", "nope", "new-pass"), models.CodeValidation)
	assert.NoError(t, svc.ResetPassword(ctx, "u", "old-pass", "new-pass"))
}

func TestUserService_RoleIsCachedAndInvalidated(t *testing.T) {
	t.Parallel()
	store, mr := newTestCache(t)
	role := models.RoleUser
	lookups := 0
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id string) (*models.User, error) {
		lookups++
		if id == "missing" {
			return nil, gorm.ErrRecordNotFound
		}
		return &models.User{ID: id, Role: role}, nil
	}
	users.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		return &models.User{ID: "u1", Username: username, Role: role}, nil
	}
	users.updateRoleFn = func(_ context.Context, _, r string) error {
		role = r
		return nil
	}
	svc := NewUserService(users, noopProvider(), store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.Role(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, got)
	}
	assert.Equal(t, 1, lookups)
	assert.True(t, mr.Exists(cache.UserRoleKey("u1")))

	promoted, err := svc.SetRole(ctx, "alice", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())
	assert.False(t, mr.Exists(cache.UserRoleKey("u1")))

	got, err := svc.Role(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got)

	_, err = svc.SetRole(ctx, "alice", "owner")
	assertAppErrorCode(t, err, models.CodeValidation)

	_, err = svc.Role(ctx, "missing")
	assertAppErrorCode(t, err, models.CodeNotFound)
}
