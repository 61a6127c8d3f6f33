package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/identity"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock of the identity.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Identity), args.Error(1)
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

func (m *MockProvider) Verify(ctx context.Context, token string) (*identity.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Claims), args.Error(1)
}

func (m *MockProvider) GetIdentity(ctx context.Context, subject string) (*identity.Identity, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Identity), args.Error(1)
}

func (m *MockProvider) UpdatePassword(ctx context.Context, subject, oldPassword, newPassword string) error {
	return m.Called(ctx, subject, oldPassword, newPassword).Error(0)
}

func (m *MockProvider) SignOut(ctx context.Context, claims *identity.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *MockProvider) Delete(ctx context.Context, subject string) error {
	return m.Called(ctx, subject).Error(0)
}

func newAuthTestApp(p identity.Provider) (*Server, *fiber.App) {
	s := &Server{config: testConfig(), identity: p, now: time.Now}
	app := fiber.New()
	echo := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": currentUserID(c)})
	}
	app.Get("/private", s.AuthRequired(), echo)
	app.Get("/public", s.OptionalAuth(), echo)
	app.Get("/admin", s.AuthRequired(), s.AdminRequired(), echo)
	return s, app
}

func TestAuthRequired_Bearer(t *testing.T) {
	p := new(MockProvider)
	p.On("Verify", mock.Anything, "good").Return(&identity.Claims{Subject: "u-1", Role: models.RoleUser, IssuedAt: time.Now()}, nil)
	p.On("Verify", mock.Anything, "revoked").Return(nil, identity.ErrTokenRevoked)
	p.On("Verify", mock.Anything, "junk").Return(nil, identity.ErrTokenInvalid)
	_, app := newAuthTestApp(p)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization required"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "Authorization required"},
		{"invalid token", "Bearer junk", http.StatusUnauthorized, "Invalid or expired token"},
		{"revoked token", "Bearer revoked", http.StatusUnauthorized, "Token has been revoked"},
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[models.ErrorResponse](t, resp).Error)
			} else {
				assert.Equal(t, "u-1", decode[map[string]string](t, resp)["user_id"])
			}
		})
	}
	p.AssertExpectations(t)
}

func TestOptionalAuth_IgnoresBadTokens(t *testing.T) {
	p := new(MockProvider)
	p.On("Verify", mock.Anything, "junk").Return(nil, identity.ErrTokenInvalid)
	_, app := newAuthTestApp(p)

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer junk")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "", decode[map[string]string](t, resp)["user_id"])
	p.AssertExpectations(t)
}

func TestAdminRequired_TrustsFreshRoleClaim(t *testing.T) {
	p := new(MockProvider)
	p.On("Verify", mock.Anything, "admin").Return(&identity.Claims{Subject: "a-1", Role: models.RoleAdmin, IssuedAt: time.Now()}, nil)
	p.On("Verify", mock.Anything, "user").Return(&identity.Claims{Subject: "u-1", Role: models.RoleUser, IssuedAt: time.Now()}, nil)
	_, app := newAuthTestApp(p)

	for token, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, token)
		_ = resp.Body.Close()
	}
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "comment ID", humanizeParam("commentId"))
	assert.Equal(t, "post comment ID", humanizeParam("postCommentId"))
	assert.Equal(t, "slug", humanizeParam("slug"))
}
