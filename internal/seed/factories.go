// Package seed creates demo data for development databases: a curated
// catalog of categories and articles plus generated filler posts.
package seed

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options control a seeding run.
type Options struct {
	NumPosts int
	MaxDays  int
	// DryRun builds entities without writing them.
	DryRun bool
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// Factory builds posts with realistic fake content.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	now    func() time.Time
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), now: time.Now, nextID: 1000}
}

// BuildPost constructs a post in categoryID without persisting it. Roughly
// one in five generated posts is left as a draft.
func (f *Factory) BuildPost(categoryID uint, overrides ...func(*models.Post)) *models.Post {
	description := f.faker.Sentence(12)
	status := models.StatusPublishID
	if f.faker.Number(1, 100) <= 20 {
		status = models.StatusDraftID
	}

	now := f.now()
	post := &models.Post{
		Title:       f.faker.Sentence(5),
		Description: &description,
		Content:     f.faker.Paragraph(3, 4, 12, "\n\n"),
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", f.faker.UUID()),
		CategoryID:  categoryID,
		StatusID:    status,
		Date:        f.faker.DateRange(now.AddDate(0, 0, -f.opts.MaxDays), now),
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in a single insert.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		middleware.Logger.InfoContext(ctx, "[dry-run] CreatePostsBatch", "posts", len(posts))
		return nil
	}
	return f.db.WithContext(ctx).Create(&posts).Error
}

// GeneratePosts builds n posts spread round-robin over categoryIDs and stores them.
func (f *Factory) GeneratePosts(ctx context.Context, n int, categoryIDs []uint) ([]*models.Post, error) {
	if n <= 0 {
		return nil, nil
	}
	if len(categoryIDs) == 0 {
		return nil, fmt.Errorf("cannot generate posts without categories")
	}
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, f.BuildPost(categoryIDs[i%len(categoryIDs)]))
	}
	if err := f.CreatePostsBatch(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}
