package models

import "time"

// Comment is a reader comment on a post. Comments are never edited.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	CommentText string    `gorm:"type:text;not null" json:"comment_text"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// CommentView is a comment hydrated with its author.
type CommentView struct {
	Comment
	User *UserSummary `json:"user"`
}

// Like records that a user liked a post. (post_id, user_id) is unique.
type Like struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	PostID  uint      `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	UserID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_post_user" json:"user_id"`
	LikedAt time.Time `gorm:"not null" json:"liked_at"`
}

// Activity kinds shown in the admin notification feed.
const (
	ActivityComment = "comment"
	ActivityLike    = "like"
)

// PostSummary identifies the post an activity happened on.
type PostSummary struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// Activity is one entry in the admin notification feed.
type Activity struct {
	Type        string       `json:"type"`
	ID          uint         `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	CommentText string       `json:"comment_text,omitempty"`
	User        *UserSummary `json:"user"`
	Post        PostSummary  `json:"post"`
}
