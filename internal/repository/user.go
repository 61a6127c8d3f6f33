package repository

import (
	"context"
	"fmt"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	UsernameTaken(ctx context.Context, username, exceptID string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id, role string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if isUniqueViolation(err) {
		return models.NewValidationError("Username already exists")
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs loads the users behind a set of IDs in one query. Missing IDs are skipped.
func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepository) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update writes the editable profile fields.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"username":    user.Username,
			"name":        user.Name,
			"bio":         user.Bio,
			"profile_pic": user.ProfilePic,
		})
	if isUniqueViolation(res.Error) {
		return models.NewValidationError("Username already exists")
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
