// Package models defines persistent entities, read models and API errors.
package models

import "time"

// Post is the persisted article row.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description *string   `json:"description"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Image       string    `gorm:"not null" json:"image"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	StatusID    uint      `gorm:"not null;index" json:"status_id"`
	UserID      *string   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	LikesCount  int       `gorm:"not null;default:0" json:"likes_count"`
}

// PostRow is the joined read shape returned by listings and single-post fetches.
type PostRow struct {
	ID          uint      `json:"id"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Date        time.Time `json:"date"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	LikesCount  int       `json:"likes_count"`
}

// AdminPostRow extends PostRow with the raw foreign keys the back office edits.
type AdminPostRow struct {
	PostRow
	CategoryID uint `json:"category_id"`
	StatusID   uint `json:"status_id"`
}

// PostPage is the paginated listing response.
type PostPage struct {
	TotalPosts  int64     `json:"totalPosts"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	Limit       int       `json:"limit"`
	Posts       []PostRow `json:"posts"`
	NextPage    *int      `json:"nextPage"`
}

// AdminPostPage is the paginated back-office grid response.
type AdminPostPage struct {
	TotalPosts  int64          `json:"totalPosts"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"limit"`
	Posts       []AdminPostRow `json:"posts"`
	NextPage    *int           `json:"nextPage"`
}

// LikeResult reports the state of a (post, user) like after a toggle or lookup.
// LikeID is set only when a toggle leaves the post liked.
type LikeResult struct {
	PostID     uint `json:"post_id"`
	LikeID     uint `json:"like_id,omitempty"`
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}
