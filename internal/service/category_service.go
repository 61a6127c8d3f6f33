package service

import (
	"context"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const maxCategoryNameLen = 100

type CategoryService struct {
	categories repository.CategoryRepository
	statuses   repository.StatusRepository
	cache      *cache.Store
}

func NewCategoryService(
	categories repository.CategoryRepository,
	statuses repository.StatusRepository,
	store *cache.Store,
) *CategoryService {
	return &CategoryService{categories: categories, statuses: statuses, cache: store}
}

// ListCategories returns all categories, or those whose name contains search
// ignoring case. Only the unfiltered list is cached.
func (s *CategoryService) ListCategories(ctx context.Context, search string) ([]models.Category, error) {
	search = strings.TrimSpace(search)
	if search != "" {
		categories, err := s.categories.List(ctx, search)
		return categories, storeError(err)
	}

	var categories []models.Category
	err := s.cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CatalogTTL, func() error {
		var err error
		categories, err = s.categories.List(ctx, "")
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return categories, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category", id)
	}
	return category, nil
}

func (s *CategoryService) cleanName(ctx context.Context, name string, exceptID uint) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("Category name is required")
	}
	if len(name) > maxCategoryNameLen {
		return "", models.NewValidationError("Category name too long (max 100 characters)")
	}
	taken, err := s.categories.NameTaken(ctx, name, exceptID)
	if err != nil {
		return "", storeError(err)
	}
	if taken {
		return "", models.NewValidationError("Category already exists")
	}
	return name, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name, err := s.cleanName(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, storeError(err)
	}
	s.cache.Invalidate(ctx, cache.CategoriesKey)
	return category, nil
}

// RenameCategory also retires cached listings, which embed category names.
func (s *CategoryService) RenameCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	name, err := s.cleanName(ctx, name, id)
	if err != nil {
		return nil, err
	}
	category := &models.Category{ID: id, Name: name}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, notFoundOr(err, "Category", id)
	}
	s.cache.Invalidate(ctx, cache.CategoriesKey)
	s.cache.BumpVersion(ctx, cache.PostsListNamespace)
	return category, nil
}

// DeleteCategory refuses while any post still references the category.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	n, err := s.categories.CountPosts(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if n > 0 {
		return models.NewConflictError("Category is still used by posts")
	}
	// A post written after the count still trips the foreign key.
	if err := s.categories.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return models.NewConflictError("Category is still used by posts")
		}
		return notFoundOr(err, "Category", id)
	}
	s.cache.Invalidate(ctx, cache.CategoriesKey)
	return nil
}

func (s *CategoryService) ListStatuses(ctx context.Context) ([]models.Status, error) {
	var statuses []models.Status
	err := s.cache.Aside(ctx, cache.StatusesKey, &statuses, cache.CatalogTTL, func() error {
		var err error
		statuses, err = s.statuses.List(ctx)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return statuses, nil
}
