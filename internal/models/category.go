package models

// Category groups posts. Names are unique ignoring case.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null;uniqueIndex" json:"name"`
}

// Status is the visibility label of a post.
type Status struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Status string `gorm:"not null;uniqueIndex" json:"status"`
}

// Statuses seeded by the initial migration.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"

	StatusDraftID   uint = 1
	StatusPublishID uint = 2
)
