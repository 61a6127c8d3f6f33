// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"fmt"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

const postRowColumns = `SELECT p.id, p.image, c.name AS category, p.title, p.description,
p.date, p.content, s.status AS status, p.likes_count`

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Count(ctx context.Context, filter PostFilter) (int64, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.PostRow, error)
	ListAdmin(ctx context.Context, filter PostFilter, limit, offset int) ([]models.AdminPostRow, error)
	GetByID(ctx context.Context, id uint, publishedOnly bool) (*models.PostRow, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	defer observability.TrackQuery("count", "posts")()

	pred := filter.where(likeOperator(r.db))
	var total int64
	err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) "+postJoins+pred.sql(), pred.args...).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.PostRow, error) {
	defer observability.TrackQuery("list", "posts")()

	pred := filter.where(likeOperator(r.db))
	query := postRowColumns + "\n" + postJoins + pred.sql() +
		"\nORDER BY p.date DESC, p.id DESC LIMIT " + pred.bind(limit) + " OFFSET " + pred.bind(offset)

	rows := make([]models.PostRow, 0, limit)
	if err := r.db.WithContext(ctx).Raw(query, pred.args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return rows, nil
}

func (r *postRepository) ListAdmin(ctx context.Context, filter PostFilter, limit, offset int) ([]models.AdminPostRow, error) {
	defer observability.TrackQuery("list_admin", "posts")()

	pred := filter.where(likeOperator(r.db))
	query := postRowColumns + ", p.category_id, p.status_id\n" + postJoins + pred.sql() +
		"\nORDER BY p.date DESC, p.id DESC LIMIT " + pred.bind(limit) + " OFFSET " + pred.bind(offset)

	rows := make([]models.AdminPostRow, 0, limit)
	if err := r.db.WithContext(ctx).Raw(query, pred.args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list admin posts: %w", err)
	}
	return rows, nil
}

// GetByID returns the joined post row, or gorm.ErrRecordNotFound.
func (r *postRepository) GetByID(ctx context.Context, id uint, publishedOnly bool) (*models.PostRow, error) {
	defer observability.TrackQuery("get", "posts")()

	pred := PostFilter{PublishedOnly: publishedOnly}.where(likeOperator(r.db))
	pred.clauses = append(pred.clauses, "p.id = "+pred.bind(id))

	var row models.PostRow
	res := r.db.WithContext(ctx).Raw(postRowColumns+"\n"+postJoins+pred.sql(), pred.args...).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("get post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	return r.db.WithContext(ctx).Create(post).Error
}

// Update replaces the editable columns of an existing post.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()

	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"title":       post.Title,
			"description": post.Description,
			"content":     post.Content,
			"image":       post.Image,
			"category_id": post.CategoryID,
			"status_id":   post.StatusID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a post with its likes and comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
