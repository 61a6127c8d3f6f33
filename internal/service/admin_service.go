package service

import (
	"context"
	"sort"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"golang.org/x/sync/errgroup"
)

// NotificationFeedSize is how many of each activity kind the admin feed loads.
const NotificationFeedSize = 50

// AdminMeta is the lookup data the back-office post editor needs.
type AdminMeta struct {
	Categories []models.Category `json:"categories"`
	Statuses   []models.Status   `json:"statuses"`
}

type AdminService struct {
	catalog  *CategoryService
	activity repository.ActivityRepository
}

func NewAdminService(catalog *CategoryService, activity repository.ActivityRepository) *AdminService {
	return &AdminService{catalog: catalog, activity: activity}
}

// Meta loads categories and statuses concurrently.
func (s *AdminService) Meta(ctx context.Context) (*AdminMeta, error) {
	var meta AdminMeta
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := s.catalog.ListCategories(gctx, "")
		meta.Categories = categories
		return err
	})
	g.Go(func() error {
		statuses, err := s.catalog.ListStatuses(gctx)
		meta.Statuses = statuses
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Notifications merges the latest comments and likes, newest first.
func (s *AdminService) Notifications(ctx context.Context) ([]models.Activity, error) {
	var comments, likes []models.Activity
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		comments, err = s.activity.LatestComments(gctx, NotificationFeedSize)
		return err
	})
	g.Go(func() error {
		var err error
		likes, err = s.activity.LatestLikes(gctx, NotificationFeedSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err)
	}

	feed := make([]models.Activity, 0, len(comments)+len(likes))
	feed = append(feed, comments...)
	feed = append(feed, likes...)
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed, nil
}
