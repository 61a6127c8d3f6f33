package repository

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

const (
	latestCommentsSQL = `SELECT cm.id, cm.comment_text, cm.created_at,
u.id AS user_id, u.username, u.name, u.profile_pic,
p.id AS post_id, p.title AS post_title
FROM comments cm
JOIN users u ON u.id = cm.user_id
JOIN posts p ON p.id = cm.post_id
ORDER BY cm.created_at DESC, cm.id DESC
LIMIT $1`

	latestLikesSQL = `SELECT l.id, l.liked_at AS created_at,
u.id AS user_id, u.username, u.name, u.profile_pic,
p.id AS post_id, p.title AS post_title
FROM likes l
JOIN users u ON u.id = l.user_id
JOIN posts p ON p.id = l.post_id
ORDER BY l.liked_at DESC, l.id DESC
LIMIT $1`
)

// ActivityRepository reads the recent reader activity shown to admins.
type ActivityRepository interface {
	LatestComments(ctx context.Context, limit int) ([]models.Activity, error)
	LatestLikes(ctx context.Context, limit int) ([]models.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

type activityRow struct {
	ID          uint
	CommentText string
	CreatedAt   time.Time
	UserID      string
	Username    string
	Name        string
	ProfilePic  string
	PostID      uint
	PostTitle   string
}

func (row activityRow) toActivity(kind string) models.Activity {
	return models.Activity{
		Type:        kind,
		ID:          row.ID,
		CreatedAt:   row.CreatedAt,
		CommentText: row.CommentText,
		User: &models.UserSummary{
			ID:         row.UserID,
			Username:   row.Username,
			Name:       row.Name,
			ProfilePic: row.ProfilePic,
		},
		Post: models.PostSummary{ID: row.PostID, Title: row.PostTitle},
	}
}

func (r *activityRepository) latest(ctx context.Context, query, kind string, limit int) ([]models.Activity, error) {
	defer observability.TrackQuery("latest", kind)()

	var rows []activityRow
	if err := r.db.WithContext(ctx).Raw(query, limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("latest %s activity: %w", kind, err)
	}
	out := make([]models.Activity, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toActivity(kind))
	}
	return out, nil
}

func (r *activityRepository) LatestComments(ctx context.Context, limit int) ([]models.Activity, error) {
	return r.latest(ctx, latestCommentsSQL, models.ActivityComment, limit)
}

func (r *activityRepository) LatestLikes(ctx context.Context, limit int) ([]models.Activity, error) {
	return r.latest(ctx, latestLikesSQL, models.ActivityLike, limit)
}
