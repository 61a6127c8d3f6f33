package service

import (
	"context"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// MaxPageLimit caps the page size of every listing.
const MaxPageLimit = 100

type PostService struct {
	posts        repository.PostRepository
	likes        repository.LikeRepository
	categories   repository.CategoryRepository
	statuses     repository.StatusRepository
	cache        *cache.Store
	activity     activityAnnouncer
	defaultLimit int
	now          func() time.Time
}

type PostServiceDeps struct {
	Posts        repository.PostRepository
	Likes        repository.LikeRepository
	Categories   repository.CategoryRepository
	Statuses     repository.StatusRepository
	Users        repository.UserRepository
	Cache        *cache.Store
	Events       ActivityPublisher
	DefaultLimit int
}

type ListPostsInput struct {
	Page     int
	Limit    int
	Category string
	Keyword  string
}

type AdminListPostsInput struct {
	Page       int
	Limit      int
	CategoryID uint
	StatusID   uint
	Keyword    string
}

// PostInput is the full payload of a create or replace.
type PostInput struct {
	AuthorID    string
	Title       string
	Description *string
	Content     string
	Image       string
	CategoryID  uint
	StatusID    uint
	// Malformed names the JSON fields that arrived with the wrong type, such
	// as "category_id":"abc". They are reported instead of "is required".
	Malformed map[string]bool
}

func NewPostService(deps PostServiceDeps) *PostService {
	if deps.DefaultLimit < 1 {
		deps.DefaultLimit = 6
	}
	return &PostService{
		posts:        deps.Posts,
		likes:        deps.Likes,
		categories:   deps.Categories,
		statuses:     deps.Statuses,
		cache:        deps.Cache,
		activity:     activityAnnouncer{pub: deps.Events, users: deps.Users, posts: deps.Posts},
		defaultLimit: deps.DefaultLimit,
		now:          time.Now,
	}
}

func (s *PostService) normalizeWindow(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	return page, min(limit, MaxPageLimit)
}

// ListPosts returns one page of published posts. Pages past the end clamp to
// the last page.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (page *models.PostPage, err error) {
	in.Page, in.Limit = s.normalizeWindow(in.Page, in.Limit)
	in.Category = strings.TrimSpace(in.Category)
	in.Keyword = strings.TrimSpace(in.Keyword)

	ctx, span := observability.StartServiceSpan(ctx, "PostService", "ListPosts",
		attribute.Int("page", in.Page),
		attribute.Int("limit", in.Limit),
		attribute.Bool("filtered", in.Category != "" || in.Keyword != ""),
	)
	defer func() { observability.EndSpan(span, err) }()

	key := cache.PostsListKey(s.cache.Version(ctx, cache.PostsListNamespace), in.Page, in.Limit, in.Category, in.Keyword)
	var result models.PostPage
	err = s.cache.Aside(ctx, key, &result, cache.ListTTL, func() error {
		filter := repository.PostFilter{PublishedOnly: true, Category: in.Category, Keyword: in.Keyword}
		total, err := s.posts.Count(ctx, filter)
		if err != nil {
			return err
		}
		info := models.NewPageInfo(total, in.Page, in.Limit)
		rows, err := s.posts.List(ctx, filter, info.Limit, info.Offset)
		if err != nil {
			return err
		}
		result = models.PostPage{
			TotalPosts:  info.Total,
			TotalPages:  info.TotalPages,
			CurrentPage: info.CurrentPage,
			Limit:       info.Limit,
			Posts:       rows,
			NextPage:    info.NextPage,
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &result, nil
}

// ListAdminPosts is the back-office grid: every status, optional exact filters.
func (s *PostService) ListAdminPosts(ctx context.Context, in AdminListPostsInput) (*models.AdminPostPage, error) {
	in.Page, in.Limit = s.normalizeWindow(in.Page, in.Limit)
	filter := repository.PostFilter{
		CategoryID: in.CategoryID,
		StatusID:   in.StatusID,
		Keyword:    strings.TrimSpace(in.Keyword),
	}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	info := models.NewPageInfo(total, in.Page, in.Limit)
	rows, err := s.posts.ListAdmin(ctx, filter, info.Limit, info.Offset)
	if err != nil {
		return nil, storeError(err)
	}
	return &models.AdminPostPage{
		TotalPosts:  info.Total,
		TotalPages:  info.TotalPages,
		CurrentPage: info.CurrentPage,
		Limit:       info.Limit,
		Posts:       rows,
		NextPage:    info.NextPage,
	}, nil
}

// GetPost returns a single post. Drafts are only visible when includeDrafts is set.
func (s *PostService) GetPost(ctx context.Context, id uint, includeDrafts bool) (*models.PostRow, error) {
	if includeDrafts {
		row, err := s.posts.GetByID(ctx, id, false)
		if err != nil {
			return nil, notFoundOr(err, "Post", id)
		}
		return row, nil
	}

	var row models.PostRow
	err := s.cache.Aside(ctx, cache.PostKey(id), &row, cache.PostTTL, func() error {
		found, err := s.posts.GetByID(ctx, id, true)
		if err != nil {
			return err
		}
		row = *found
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &row, nil
}

// validate collects every failed field check so the caller sees them together.
func (s *PostService) validate(ctx context.Context, in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Image = strings.TrimSpace(in.Image)
	if in.Description != nil {
		trimmed := strings.TrimSpace(*in.Description)
		in.Description = &trimmed
	}

	var problems []string
	check := func(field, label, kind string, missing bool) {
		switch {
		case in.Malformed[field]:
			problems = append(problems, label+" must be a "+kind)
		case missing:
			problems = append(problems, label+" is required")
		}
	}
	check("title", "Title", "string", in.Title == "")
	check("image", "Image", "string", in.Image == "")
	check("category_id", "Category ID", "number", in.CategoryID == 0)
	check("description", "Description", "string", false)
	check("content", "Content", "string", strings.TrimSpace(in.Content) == "")
	check("status_id", "Status ID", "number", in.StatusID == 0)

	if in.CategoryID != 0 {
		ok, err := s.categories.Exists(ctx, in.CategoryID)
		if err != nil {
			return storeError(err)
		}
		if !ok {
			problems = append(problems, "Category ID must reference an existing category")
		}
	}
	if in.StatusID != 0 {
		ok, err := s.statuses.Exists(ctx, in.StatusID)
		if err != nil {
			return storeError(err)
		}
		if !ok {
			problems = append(problems, "Status ID must reference an existing status")
		}
	}

	if len(problems) > 0 {
		return models.NewFieldValidationError(problems)
	}
	return nil
}

func (s *PostService) invalidate(ctx context.Context, id uint) {
	s.cache.Invalidate(ctx, cache.PostKey(id))
	s.cache.BumpVersion(ctx, cache.PostsListNamespace)
}

func (s *PostService) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Image:       in.Image,
		CategoryID:  in.CategoryID,
		StatusID:    in.StatusID,
		Date:        s.now().UTC(),
	}
	if in.AuthorID != "" {
		author := in.AuthorID
		post.UserID = &author
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, storeError(err)
	}
	s.cache.BumpVersion(ctx, cache.PostsListNamespace)
	return post, nil
}

// UpdatePost replaces every editable field of an existing post.
func (s *PostService) UpdatePost(ctx context.Context, id uint, in PostInput) (*models.Post, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Image:       in.Image,
		CategoryID:  in.CategoryID,
		StatusID:    in.StatusID,
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	s.invalidate(ctx, id)
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uint) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Post", id)
	}
	s.invalidate(ctx, id)
	return nil
}

// ToggleLike flips the caller's like and returns the settled count.
func (s *PostService) ToggleLike(ctx context.Context, postID uint, userID string) (result *models.LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "ToggleLike", attribute.Int("post.id", int(postID)))
	defer func() { observability.EndSpan(span, err) }()

	result, err = s.likes.Toggle(ctx, postID, userID)
	if err != nil {
		return nil, storeError(err)
	}
	s.invalidate(ctx, postID)

	action := "unlike"
	if result.Liked {
		action = "like"
		s.activity.announce(ctx, models.Activity{
			Type:      models.ActivityLike,
			ID:        result.LikeID,
			CreatedAt: s.now().UTC(),
			Post:      models.PostSummary{ID: postID},
		}, userID)
	}
	observability.LikeToggles.WithLabelValues(action).Inc()
	return result, nil
}

func (s *PostService) LikeStatus(ctx context.Context, postID uint, userID string) (*models.LikeResult, error) {
	result, err := s.likes.Status(ctx, postID, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return result, nil
}
