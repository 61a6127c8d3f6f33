package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository toggles likes and keeps posts.likes_count in step with the likes table.
type LikeRepository interface {
	Toggle(ctx context.Context, postID uint, userID string) (*models.LikeResult, error)
	Status(ctx context.Context, postID uint, userID string) (*models.LikeResult, error)
}

type likeRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, now: time.Now}
}

// Toggle flips the (post, user) like and recounts the post in the same
// transaction. A concurrent insert that loses the unique race counts as liked.
func (r *likeRepository) Toggle(ctx context.Context, postID uint, userID string) (*models.LikeResult, error) {
	defer observability.TrackQuery("toggle", "likes")()

	result := &models.LikeResult{PostID: postID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
			return fmt.Errorf("check post: %w", err)
		}
		if exists == 0 {
			return models.NewNotFoundError("Post", postID)
		}

		var like models.Like
		lookup := tx.Where("post_id = ? AND user_id = ?", postID, userID).Limit(1).Find(&like)
		if lookup.Error != nil {
			return fmt.Errorf("find like: %w", lookup.Error)
		}

		if lookup.RowsAffected == 0 {
			like = models.Like{PostID: postID, UserID: userID, LikedAt: r.now()}
			insert := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).Create(&like)
			if err := insert.Error; err != nil && !isUniqueViolation(err) {
				return fmt.Errorf("insert like: %w", err)
			}
			if insert.Error != nil || insert.RowsAffected == 0 {
				// Lost the race; report the row that won it.
				if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&like).Error; err != nil {
					return fmt.Errorf("find like: %w", err)
				}
			}
			result.LikeID = like.ID
			result.Liked = true
		} else {
			if err := tx.Delete(&models.Like{}, like.ID).Error; err != nil {
				return fmt.Errorf("delete like: %w", err)
			}
			result.Liked = false
		}

		count, err := recount(tx, postID)
		if err != nil {
			return err
		}
		result.LikesCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func recount(tx *gorm.DB, postID uint) (int, error) {
	var n int64
	if err := tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Update("likes_count", n).Error; err != nil {
		return 0, fmt.Errorf("update likes_count: %w", err)
	}
	return int(n), nil
}

func (r *likeRepository) Status(ctx context.Context, postID uint, userID string) (*models.LikeResult, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Select("id", "likes_count").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if err != nil {
		return nil, err
	}

	var liked int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&liked).Error; err != nil {
		return nil, err
	}
	return &models.LikeResult{PostID: postID, Liked: liked > 0, LikesCount: post.LikesCount}, nil
}
