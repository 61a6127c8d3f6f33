// Package service holds the blog's business rules between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"gorm.io/gorm"
)

// storeError passes application errors through and turns anything else from
// the datastore into an INTERNAL_ERROR.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND for resource/id.
func notFoundOr(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return storeError(err)
}

// ActivityPublisher fans out reader activity to live admin feeds.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity models.Activity) error
}

// activityAnnouncer fills in author and post details before publishing.
// Publishing is best effort and never fails the operation that caused it.
type activityAnnouncer struct {
	pub   ActivityPublisher
	users repository.UserRepository
	posts repository.PostRepository
}

func (a activityAnnouncer) announce(ctx context.Context, activity models.Activity, userID string) {
	if a.pub == nil {
		return
	}
	if activity.User == nil && a.users != nil {
		if u, err := a.users.GetByID(ctx, userID); err == nil {
			summary := u.Summary()
			activity.User = &summary
		}
	}
	if activity.Post.Title == "" && a.posts != nil {
		if row, err := a.posts.GetByID(ctx, activity.Post.ID, false); err == nil {
			activity.Post.Title = row.Title
		}
	}
	if err := a.pub.Publish(ctx, activity); err != nil {
		middleware.Logger.WarnContext(ctx, "activity publish failed",
			slog.String("type", activity.Type),
			slog.String("error", err.Error()))
	}
}
