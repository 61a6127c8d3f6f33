package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves the three endpoints feedwatch uses and pushes frames to the
// first socket that connects with the issued ticket.
func fakeAPI(t *testing.T, frames []any) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "hunter22" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("POST /api/ws/ticket", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ticket": "t-1", "expires_in": 30})
	})
	mux.HandleFunc("GET /api/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ticket") != "t-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			assert.NoError(t, conn.WriteJSON(f))
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_, _, _ = conn.ReadMessage()
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWatch_PrintsActivity(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := fakeAPI(t, []any{
		frame{Type: "activity", Payload: models.Activity{
			Type: models.ActivityComment, ID: 1, CreatedAt: at, CommentText: "nice",
			User: &models.UserSummary{Username: "alice"}, Post: models.PostSummary{ID: 9, Title: "Lisbon"},
		}},
		map[string]string{"type": "ping"},
		frame{Type: "activity", Payload: models.Activity{
			Type: models.ActivityLike, ID: 2, CreatedAt: at,
			User: &models.UserSummary{Username: "bob"}, Post: models.PostSummary{ID: 9, Title: "Lisbon"},
		}},
	})

	client, err := newFeedClient(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, watch(ctx, client, "admin@example.com", "hunter22", &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `alice commented on "Lisbon": nice`)
	assert.Contains(t, lines[2], `bob liked "Lisbon"`)
}

func TestWatch_LoginFailure(t *testing.T) {
	srv := fakeAPI(t, nil)
	client, err := newFeedClient(srv.URL)
	require.NoError(t, err)

	var out bytes.Buffer
	err = watch(context.Background(), client, "admin@example.com", "wrong", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Invalid email or password")
	assert.Empty(t, out.String())
}

func TestNewFeedClient_RejectsNonHTTP(t *testing.T) {
	_, err := newFeedClient("ftp://example.com")
	assert.Error(t, err)
}

func TestFormatActivity_UnknownUser(t *testing.T) {
	line := formatActivity(models.Activity{Type: models.ActivityLike, Post: models.PostSummary{Title: "x"}})
	assert.Contains(t, line, `someone liked "x"`)
}
