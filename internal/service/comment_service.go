package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"gorm.io/gorm"
)

const maxCommentLen = 10000

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	activity activityAnnouncer
}

type CreateCommentInput struct {
	UserID string
	PostID uint
	Text   string
}

type DeleteCommentInput struct {
	UserID    string
	PostID    uint
	CommentID uint
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	events ActivityPublisher,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
		activity: activityAnnouncer{pub: events, users: users, posts: posts},
	}
}

func (s *CommentService) requirePost(ctx context.Context, postID uint) error {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

// ListComments returns a post's comments oldest first, each with its author.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, storeError(err)
	}
	return s.hydrate(ctx, comments)
}

// hydrate attaches authors with one lookup for all distinct user IDs.
func (s *CommentService) hydrate(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	seen := make(map[string]struct{}, len(comments))
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		ids = append(ids, c.UserID)
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err)
	}
	authors := make(map[string]models.UserSummary, len(users))
	for i := range users {
		authors[users[i].ID] = users[i].Summary()
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		view := models.CommentView{Comment: c}
		if author, ok := authors[c.UserID]; ok {
			view.User = &author
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.CommentView, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := models.Comment{PostID: in.PostID, UserID: in.UserID, CommentText: text}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return nil, storeError(err)
	}
	observability.CommentsCreated.Inc()

	views, err := s.hydrate(ctx, []models.Comment{comment})
	if err != nil {
		return nil, err
	}
	view := views[0]

	s.activity.announce(ctx, models.Activity{
		Type:        models.ActivityComment,
		ID:          comment.ID,
		CreatedAt:   comment.CreatedAt,
		CommentText: comment.CommentText,
		User:        view.User,
		Post:        models.PostSummary{ID: in.PostID},
	}, in.UserID)
	return &view, nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && comment.PostID != in.PostID) {
		return models.NewNotFoundError("Comment", in.CommentID)
	}
	if err != nil {
		return storeError(err)
	}
	if comment.UserID != in.UserID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.comments.Delete(ctx, in.CommentID); err != nil {
		return storeError(err)
	}
	return nil
}
