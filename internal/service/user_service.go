package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/identity"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const (
	minPasswordLen = 6
	maxUsernameLen = 50
	maxBioLen      = 1000
)

type UserService struct {
	users    repository.UserRepository
	provider identity.Provider
	cache    *cache.Store
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

// UpdateProfileInput carries optional fields; nil leaves a field unchanged.
type UpdateProfileInput struct {
	UserID     string
	Username   *string
	Name       *string
	Bio        *string
	ProfilePic *string
}

// LoginResult is returned to the client after a successful sign-in.
type LoginResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        models.Profile `json:"user"`
}

func NewUserService(users repository.UserRepository, provider identity.Provider, store *cache.Store) *UserService {
	return &UserService{users: users, provider: provider, cache: store}
}

func validUsername(username string) bool {
	if username == "" || len(username) > maxUsernameLen {
		return false
	}
	for _, r := range username {
		if !(r == '_' || r == '-' || r == '.' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// Register creates the identity and then the profile row. If the profile
// cannot be stored the identity is removed again.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	var problems []string
	if !validUsername(in.Username) {
		problems = append(problems, "Username is required and may only contain letters, digits, '.', '-' and '_'")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		problems = append(problems, "A valid email is required")
	}
	if len(in.Password) < minPasswordLen {
		problems = append(problems, "Password must be at least 6 characters")
	}
	if len(problems) > 0 {
		return nil, models.NewFieldValidationError(problems)
	}

	taken, err := s.users.UsernameTaken(ctx, in.Username, "")
	if err != nil {
		return nil, storeError(err)
	}
	if taken {
		return nil, models.NewValidationError("Username already exists")
	}

	ident, err := s.provider.SignUp(ctx, in.Email, in.Password)
	if errors.Is(err, identity.ErrEmailTaken) {
		return nil, models.NewValidationError("Email already registered")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		ID:       ident.Subject,
		Username: in.Username,
		Name:     in.Name,
		Role:     models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if delErr := s.provider.Delete(ctx, ident.Subject); delErr != nil {
			middleware.Logger.ErrorContext(ctx, "failed to roll back identity",
				slog.String("subject", ident.Subject),
				slog.String("error", delErr.Error()))
		}
		return nil, storeError(err)
	}
	return profileOf(user, ident.Email), nil
}

func profileOf(u *models.User, email string) *models.Profile {
	return &models.Profile{
		ID:         u.ID,
		Email:      email,
		Username:   u.Username,
		Name:       u.Name,
		Role:       u.Role,
		ProfilePic: u.ProfilePic,
		Bio:        u.Bio,
	}
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	session, err := s.provider.SignIn(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	profile, err := s.Profile(ctx, session.Subject)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   session.ExpiresAt,
		User:        *profile,
	}, nil
}

// Profile joins the profile row with the email held by the identity provider.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User", userID)
	}
	ident, err := s.provider.GetIdentity(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, models.NewNotFoundError("User", userID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profileOf(user, ident.Email), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, notFoundOr(err, "User", in.UserID)
	}

	var problems []string
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		switch {
		case !validUsername(username):
			problems = append(problems, "Username is required and may only contain letters, digits, '.', '-' and '_'")
		case username != user.Username:
			taken, err := s.users.UsernameTaken(ctx, username, user.ID)
			if err != nil {
				return nil, storeError(err)
			}
			if taken {
				problems = append(problems, "Username already exists")
			}
		}
		user.Username = username
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
		if len(user.Bio) > maxBioLen {
			problems = append(problems, "Bio too long (max 1000 characters)")
		}
	}
	if in.ProfilePic != nil {
		pic := strings.TrimSpace(*in.ProfilePic)
		if pic != "" {
			if u, err := url.ParseRequestURI(pic); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				problems = append(problems, "Profile picture must be an http(s) URL")
			}
		}
		user.ProfilePic = pic
	}
	if len(problems) > 0 {
		return nil, models.NewFieldValidationError(problems)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, "User", in.UserID)
	}
	return s.Profile(ctx, in.UserID)
}

func (s *UserService) ResetPassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return models.NewValidationError("Password must be at least 6 characters")
	}
	err := s.provider.UpdatePassword(ctx, userID, oldPassword, newPassword)
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return models.NewValidationError("Old password is incorrect")
	case errors.Is(err, identity.ErrNotFound):
		return models.NewNotFoundError("User", userID)
	case err != nil:
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserService) Logout(ctx context.Context, claims *identity.Claims) error {
	if err := s.provider.SignOut(ctx, claims); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Role returns the user's current role, cached briefly in Redis.
func (s *UserService) Role(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.cache.Aside(ctx, cache.UserRoleKey(userID), &role, cache.UserRoleTTL, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		role = user.Role
		return nil
	})
	if err != nil {
		return "", notFoundOr(err, "User", userID)
	}
	return role, nil
}

// SetRole changes a user's role, found by username, and drops the cached role.
func (s *UserService) SetRole(ctx context.Context, username, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, models.NewValidationError("Role must be 'user' or 'admin'")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, "User", username)
	}
	if err := s.users.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, notFoundOr(err, "User", username)
	}
	s.cache.Invalidate(ctx, cache.UserRoleKey(user.ID))
	user.Role = role
	return user, nil
}
