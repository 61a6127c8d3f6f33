package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupMockDB opens GORM over sqlmock with the Postgres dialect so tests can
// assert the exact SQL and placeholders sent to the server.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// openTestDB returns an in-memory SQLite database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(context.Background(), db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.NewString(), Username: username, Name: username, Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

type postSeed struct {
	title    string
	content  string
	category uint
	status   uint
	age      time.Duration
}

func createPost(t *testing.T, db *gorm.DB, seed postSeed) *models.Post {
	t.Helper()
	if seed.status == 0 {
		seed.status = models.StatusPublishID
	}
	if seed.content == "" {
		seed.content = "body of " + seed.title
	}
	post := &models.Post{
		Title:      seed.title,
		Content:    seed.content,
		Image:      "https://img.example.com/" + seed.title + ".png",
		CategoryID: seed.category,
		StatusID:   seed.status,
		Date:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Add(-seed.age),
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func createPosts(t *testing.T, db *gorm.DB, n int, category uint) []*models.Post {
	t.Helper()
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, createPost(t, db, postSeed{
			title:    fmt.Sprintf("post-%02d", i),
			category: category,
			age:      time.Duration(i) * time.Hour,
		}))
	}
	return posts
}
