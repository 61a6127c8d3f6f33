package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const revokedKeyPrefix = "blacklist:"

// Credential is the local provider's login record, stored in "identities".
type Credential struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the database table name for Credential.
func (Credential) TableName() string {
	return "identities"
}

// LocalConfig configures a LocalProvider.
type LocalConfig struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// LocalProvider stores bcrypt credentials in the database, signs HS256 access
// tokens and keeps revoked token IDs in Redis until they expire.
type LocalProvider struct {
	db    *gorm.DB
	rdb   *redis.Client
	cfg   LocalConfig
	roles RoleResolver
	now   func() time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewLocalProvider builds a provider. rdb may be nil, in which case sign-out
// cannot revoke tokens before they expire. roles may be nil, in which case
// tokens carry no role claim.
func NewLocalProvider(db *gorm.DB, rdb *redis.Client, cfg LocalConfig, roles RoleResolver) *LocalProvider {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &LocalProvider{db: db, rdb: rdb, cfg: cfg, roles: roles, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a credential with a fresh subject ID.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	email = normalizeEmail(email)

	var existing int64
	if err := p.db.WithContext(ctx).Model(&Credential{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.db.WithContext(ctx).Create(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return &Identity{Subject: cred.ID, Email: cred.Email}, nil
}

// SignIn checks the password and issues an access token.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var cred Credential
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	role := ""
	if p.roles != nil {
		role, err = p.roles(ctx, cred.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve role: %w", err)
		}
	}

	token, expiresAt, err := p.issue(cred.ID, cred.Email, role)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresAt: expiresAt, Subject: cred.ID}, nil
}

func (p *LocalProvider) issue(subject, email, role string) (string, time.Time, error) {
	now := p.now()
	expiresAt := now.Add(p.cfg.TokenTTL)
	claims := tokenClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    p.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify validates signature, issuer and expiry, and rejects revoked tokens.
func (p *LocalProvider) Verify(ctx context.Context, token string) (*Claims, error) {
	parsed := &tokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.cfg.Issuer))
	}

	_, err := jwt.ParseWithClaims(token, parsed, func(*jwt.Token) (any, error) {
		return []byte(p.cfg.Secret), nil
	}, opts...)
	if err != nil || parsed.Subject == "" {
		return nil, ErrTokenInvalid
	}

	if p.rdb != nil && parsed.ID != "" {
		n, err := p.rdb.Exists(ctx, revokedKeyPrefix+parsed.ID).Result()
		if err != nil {
			middleware.Logger.WarnContext(ctx, "revocation check failed", slog.String("error", err.Error()))
		} else if n > 0 {
			return nil, ErrTokenRevoked
		}
	}

	claims := &Claims{
		Subject: parsed.Subject,
		Email:   parsed.Email,
		Role:    parsed.Role,
		TokenID: parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}

// GetIdentity returns the stored identity for subject.
func (p *LocalProvider) GetIdentity(ctx context.Context, subject string) (*Identity, error) {
	var cred Credential
	err := p.db.WithContext(ctx).Select("id", "email").Where("id = ?", subject).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return &Identity{Subject: cred.ID, Email: cred.Email}, nil
}

// UpdatePassword replaces the password after verifying the old one.
func (p *LocalProvider) UpdatePassword(ctx context.Context, subject, oldPassword, newPassword string) error {
	var cred Credential
	err := p.db.WithContext(ctx).Where("id = ?", subject).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.db.WithContext(ctx).Model(&Credential{}).
		Where("id = ?", subject).
		Update("password_hash", string(hash)).Error
}

// SignOut revokes the token until its natural expiry.
func (p *LocalProvider) SignOut(ctx context.Context, claims *Claims) error {
	if p.rdb == nil || claims == nil || claims.TokenID == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(p.now())
	if ttl <= 0 {
		return nil
	}
	return p.rdb.Set(ctx, revokedKeyPrefix+claims.TokenID, "1", ttl).Err()
}

// Delete removes a credential. It is used to roll back a sign-up whose
// profile row could not be created.
func (p *LocalProvider) Delete(ctx context.Context, subject string) error {
	return p.db.WithContext(ctx).Where("id = ?", subject).Delete(&Credential{}).Error
}
