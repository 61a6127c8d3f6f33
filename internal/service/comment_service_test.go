package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateComment_Validation(t *testing.T) {
	t.Parallel()
	svc := NewCommentService(noopCommentRepo(), noopPostRepo(), noopUserRepo(), nil)
	ctx := context.Background()

	t.Run("blank text", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: "u", PostID: 1, Text: "   "})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("text too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: "u", PostID: 1, Text: strings.Repeat("é", 10001)})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.existsFn = func(context.Context, uint) (bool, error) { return false, nil }
		svc := NewCommentService(noopCommentRepo(), posts, noopUserRepo(), nil)
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: "u", PostID: 99, Text: "hi"})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})
}

func TestCommentService_CreateComment_HydratesAndAnnounces(t *testing.T) {
	t.Parallel()
	pub := &publisherStub{}
	comments := noopCommentRepo()
	comments.createFn = func(_ context.Context, c *models.Comment) error {
		c.ID = 11
		c.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		return nil
	}
	svc := NewCommentService(comments, noopPostRepo(), noopUserRepo(), pub)

	view, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: "u-7", PostID: 3, Text: "  nice  "})
	require.NoError(t, err)
	assert.Equal(t, uint(11), view.ID)
	assert.Equal(t, "nice", view.CommentText)
	require.NotNil(t, view.User)
	assert.Equal(t, "user-u-7", view.User.Username)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, models.ActivityComment, events[0].Type)
	assert.Equal(t, uint(11), events[0].ID)
	assert.Equal(t, "nice", events[0].CommentText)
	assert.Equal(t, "post", events[0].Post.Title)
}

func TestCommentService_ListComments_SingleAuthorLookup(t *testing.T) {
	t.Parallel()
	comments := noopCommentRepo()
	comments.listByPostFn = func(context.Context, uint) ([]models.Comment, error) {
		return []models.Comment{
			{ID: 1, UserID: "a", CommentText: "one"},
			{ID: 2, UserID: "b", CommentText: "two"},
			{ID: 3, UserID: "a", CommentText: "three"},
			{ID: 4, UserID: "gone", CommentText: "orphan"},
		}, nil
	}
	users := noopUserRepo()
	lookups := 0
	var asked []string
	users.getByIDsFn = func(_ context.Context, ids []string) ([]models.User, error) {
		lookups++
		asked = ids
		return []models.User{{ID: "a", Username: "alice"}, {ID: "b", Username: "bob"}}, nil
	}
	svc := NewCommentService(comments, noopPostRepo(), users, nil)

	views, err := svc.ListComments(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, lookups)
	assert.Equal(t, []string{"a", "b", "gone"}, asked)
	require.Len(t, views, 4)
	assert.Equal(t, "one", views[0].CommentText)
	assert.Equal(t, "alice", views[0].User.Username)
	assert.Equal(t, "bob", views[1].User.Username)
	assert.Equal(t, "alice", views[2].User.Username)
	assert.Nil(t, views[3].User)
}

func TestCommentService_DeleteComment_Ownership(t *testing.T) {
	t.Parallel()
	deleted := false
	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		return &models.Comment{ID: id, PostID: 1, UserID: "owner"}, nil
	}
	comments.deleteFn = func(context.Context, uint) error {
		deleted = true
		return nil
	}
	svc := NewCommentService(comments, noopPostRepo(), noopUserRepo(), nil)
	ctx := context.Background()

	err := svc.DeleteComment(ctx, DeleteCommentInput{UserID: "intruder", PostID: 1, CommentID: 5})
	assertAppErrorCode(t, err, models.CodeForbidden)
	assert.False(t, deleted)

	err = svc.DeleteComment(ctx, DeleteCommentInput{UserID: "owner", PostID: 2, CommentID: 5})
	assertAppErrorCode(t, err, models.CodeNotFound)
	assert.False(t, deleted)

	require.NoError(t, svc.DeleteComment(ctx, DeleteCommentInput{UserID: "owner", PostID: 1, CommentID: 5}))
	assert.True(t, deleted)
}

func TestCommentService_DeleteComment_Missing(t *testing.T) {
	t.Parallel()
	svc := NewCommentService(noopCommentRepo(), noopPostRepo(), noopUserRepo(), nil)
	err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: "u", PostID: 1, CommentID: 404})
	assertAppErrorCode(t, err, models.CodeNotFound)
}
