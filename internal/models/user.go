package models

import "time"

// Roles a user may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the public profile row. ID matches the identity provider subject.
type User struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username   string    `gorm:"not null;uniqueIndex" json:"username"`
	Name       string    `json:"name"`
	ProfilePic string    `json:"profile_pic"`
	Role       string    `gorm:"not null;default:user" json:"role"`
	Bio        string    `gorm:"type:text" json:"bio"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the author block attached to comments and notifications.
type UserSummary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	ProfilePic string `json:"profile_pic"`
}

// Summary trims a user down to its public author block.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		ProfilePic: u.ProfilePic,
	}
}

// Profile is the authenticated user's own view, including email.
type Profile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	ProfilePic string `json:"profile_pic"`
	Bio        string `json:"bio"`
}
