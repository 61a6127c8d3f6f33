package database

import (
	"inkwell/internal/identity"
	"inkwell/internal/models"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Category{},
		&models.Status{},
		&identity.Credential{},
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	}
}
