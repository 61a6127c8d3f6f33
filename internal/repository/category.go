package repository

import (
	"context"
	"fmt"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category operations
type CategoryRepository interface {
	List(ctx context.Context, search string) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	Exists(ctx context.Context, id uint) (bool, error)
	NameTaken(ctx context.Context, name string, exceptID uint) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
	CountPosts(ctx context.Context, id uint) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// List returns categories ordered by name, optionally narrowed by a
// case-insensitive substring of the name.
func (r *categoryRepository) List(ctx context.Context, search string) ([]models.Category, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where(fmt.Sprintf("name %s ?", likeOperator(r.db)), "%"+search+"%")
	}
	categories := []models.Category{}
	err := q.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// NameTaken compares names ignoring case.
func (r *categoryRepository) NameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{}).Where("lower(name) = lower(?)", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	if isUniqueViolation(err) {
		return models.NewValidationError("Category already exists")
	}
	return err
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", category.ID).
		Update("name", category.Name)
	if isUniqueViolation(res.Error) {
		return models.NewValidationError("Category already exists")
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *categoryRepository) CountPosts(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("category_id = ?", id).Count(&n).Error
	return n, err
}
