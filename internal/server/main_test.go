package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv is a full server over in-memory SQLite and miniredis.
type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                   "0",
		Env:                    "test",
		JWTSecret:              "test-secret-test-secret-test-secret",
		JWTIssuer:              "inkwell-test",
		JWTTTLMinutes:          60,
		RoleClaimMaxAgeMinutes: 15,
		BcryptCost:             4,
		DefaultPageLimit:       6,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(context.Background(), db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.App(), db: db, mr: mr}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// signUp registers a reader and returns a fresh access token and user ID.
func (e *testEnv) signUp(t *testing.T, username string) (string, string) {
	t.Helper()
	email := username + "@example.com"

	resp := e.request(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"username": username,
		"email":    email,
		"password": "secret-pass",
		"name":     username,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	profile := decode[models.Profile](t, resp)

	return e.login(t, email), profile.ID
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	resp := e.request(t, http.MethodPost, "/api/auth/login", fiber.Map{
		"email":    email,
		"password": "secret-pass",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[struct {
		AccessToken string `json:"access_token"`
	}](t, resp).AccessToken
}

// signUpAdmin registers a user, promotes them and returns a token carrying the admin role.
func (e *testEnv) signUpAdmin(t *testing.T, username string) (string, string) {
	t.Helper()
	_, id := e.signUp(t, username)
	_, err := e.srv.userService.SetRole(context.Background(), username, models.RoleAdmin)
	require.NoError(t, err)
	return e.login(t, username+"@example.com"), id
}

func (e *testEnv) category(t *testing.T, name string) uint {
	t.Helper()
	c := &models.Category{Name: name}
	require.NoError(t, e.db.Create(c).Error)
	return c.ID
}

func (e *testEnv) post(t *testing.T, title, content string, categoryID, statusID uint, age time.Duration) uint {
	t.Helper()
	p := &models.Post{
		Title:      title,
		Content:    content,
		Image:      "https://cdn.example.com/" + title + ".png",
		CategoryID: categoryID,
		StatusID:   statusID,
		Date:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Add(-age),
	}
	require.NoError(t, e.db.Create(p).Error)
	return p.ID
}
