package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/catalog.yaml
var defaultCatalog []byte

// CatalogPost is a hand-written article shipped with the catalog.
type CatalogPost struct {
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	Status      string `yaml:"status"`
	Description string `yaml:"description"`
	Content     string `yaml:"content"`
	Image       string `yaml:"image"`
}

// Catalog is the curated set of categories and articles.
type Catalog struct {
	Categories []string      `yaml:"categories"`
	Posts      []CatalogPost `yaml:"posts"`
}

// Result summarises what a seeding run wrote.
type Result struct {
	Categories   int
	CatalogPosts int
	FakePosts    int
}

// LoadCatalog parses a YAML catalog and checks that every post references a
// listed category and a known status.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	known := make(map[string]bool, len(c.Categories))
	for i, name := range c.Categories {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("catalog category %d is empty", i)
		}
		c.Categories[i] = name
		known[strings.ToLower(name)] = true
	}

	for i := range c.Posts {
		p := &c.Posts[i]
		p.Title = strings.TrimSpace(p.Title)
		if p.Title == "" {
			return nil, fmt.Errorf("catalog post %d has no title", i)
		}
		if !known[strings.ToLower(strings.TrimSpace(p.Category))] {
			return nil, fmt.Errorf("catalog post %q uses unknown category %q", p.Title, p.Category)
		}
		if p.Status == "" {
			p.Status = models.StatusPublish
		}
		if _, err := statusID(p.Status); err != nil {
			return nil, fmt.Errorf("catalog post %q: %w", p.Title, err)
		}
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalog)
}

func statusID(status string) (uint, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.StatusPublish:
		return models.StatusPublishID, nil
	case models.StatusDraft:
		return models.StatusDraftID, nil
	default:
		return 0, fmt.Errorf("unknown status %q", status)
	}
}

// ensureCategory returns the ID of the category named name, ignoring case,
// creating it when missing.
func ensureCategory(ctx context.Context, tx *gorm.DB, name string) (uint, bool, error) {
	var existing models.Category
	err := tx.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&existing).Error
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}
	created := models.Category{Name: name}
	if err := tx.WithContext(ctx).Create(&created).Error; err != nil {
		return 0, false, err
	}
	return created.ID, true, nil
}

// ApplyCatalog upserts the catalog's categories and inserts its posts whose
// titles are not already present. Running it twice is a no-op.
func ApplyCatalog(ctx context.Context, db *gorm.DB, c *Catalog) (map[string]uint, Result, error) {
	var res Result
	ids := make(map[string]uint, len(c.Categories))

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range c.Categories {
			id, created, err := ensureCategory(ctx, tx, name)
			if err != nil {
				return fmt.Errorf("category %q: %w", name, err)
			}
			ids[strings.ToLower(name)] = id
			if created {
				res.Categories++
			}
		}

		date := time.Now().UTC()
		for i, p := range c.Posts {
			var count int64
			if err := tx.Model(&models.Post{}).Where("title = ?", p.Title).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			status, _ := statusID(p.Status)
			post := models.Post{
				Title:      p.Title,
				Content:    strings.TrimSpace(p.Content),
				Image:      p.Image,
				CategoryID: ids[strings.ToLower(strings.TrimSpace(p.Category))],
				StatusID:   status,
				Date:       date.Add(-time.Duration(i) * time.Hour),
			}
			if p.Description != "" {
				description := p.Description
				post.Description = &description
			}
			if err := tx.Create(&post).Error; err != nil {
				return fmt.Errorf("post %q: %w", p.Title, err)
			}
			res.CatalogPosts++
		}
		return nil
	})
	if err != nil {
		return nil, Result{}, err
	}
	return ids, res, nil
}

// Run applies the catalog and then generates opts.NumPosts filler posts
// spread over the catalog's categories.
func Run(ctx context.Context, db *gorm.DB, c *Catalog, opts Options) (Result, error) {
	if opts.DryRun {
		f := NewFactory(nil, opts)
		ids := make([]uint, len(c.Categories))
		for i := range ids {
			ids[i] = uint(i + 1)
		}
		posts, err := f.GeneratePosts(ctx, opts.NumPosts, ids)
		return Result{FakePosts: len(posts)}, err
	}

	ids, res, err := ApplyCatalog(ctx, db, c)
	if err != nil {
		return Result{}, err
	}

	categoryIDs := make([]uint, 0, len(c.Categories))
	for _, name := range c.Categories {
		categoryIDs = append(categoryIDs, ids[strings.ToLower(name)])
	}
	posts, err := NewFactory(db, opts).GeneratePosts(ctx, opts.NumPosts, categoryIDs)
	if err != nil {
		return res, fmt.Errorf("generate posts: %w", err)
	}
	res.FakePosts = len(posts)

	middleware.Logger.InfoContext(ctx, "seed complete",
		"categories", res.Categories, "catalog_posts", res.CatalogPosts, "fake_posts", res.FakePosts)
	return res, nil
}
