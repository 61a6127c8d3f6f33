// Package identity defines the identity provider boundary and a local
// implementation backed by the application database, JWT and Redis.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrNotFound           = errors.New("identity not found")
)

// Identity is what the provider knows about a subject.
type Identity struct {
	Subject string
	Email   string
}

// Claims are the verified contents of an access token.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is the result of a successful sign-in.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Subject     string
}

// RoleResolver looks up the current role of a subject so it can be embedded in tokens.
type RoleResolver func(ctx context.Context, subject string) (string, error)

// Provider issues and verifies sessions. The server depends only on this
// interface so a hosted identity service can replace the local one.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, token string) (*Claims, error)
	GetIdentity(ctx context.Context, subject string) (*Identity, error)
	UpdatePassword(ctx context.Context, subject, oldPassword, newPassword string) error
	SignOut(ctx context.Context, claims *Claims) error
	Delete(ctx context.Context, subject string) error
}
