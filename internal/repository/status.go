package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// StatusRepository reads the fixed set of post statuses.
type StatusRepository interface {
	List(ctx context.Context) ([]models.Status, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

type statusRepository struct {
	db *gorm.DB
}

// NewStatusRepository creates a new status repository
func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &statusRepository{db: db}
}

func (r *statusRepository) List(ctx context.Context) ([]models.Status, error) {
	statuses := []models.Status{}
	err := r.db.WithContext(ctx).Order("id ASC").Find(&statuses).Error
	return statuses, err
}

func (r *statusRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Status{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
