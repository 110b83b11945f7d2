package repository

import (
	"context"
	"strings"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows the public listing. Query matches title OR content
// case-insensitively; CategoryID restricts to one category. Both compose
// with AND when set.
type PostFilter struct {
	Query      string
	CategoryID *uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagNames []string) error
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListPublished(ctx context.Context, f PostFilter, page, size int) ([]*models.Post, int64, error)
	ListPublishedByTag(ctx context.Context, tagID uint, page, size int) ([]*models.Post, int64, error)
	ListByAuthor(ctx context.Context, userID uint, page, size int) ([]*models.Post, int64, error)
	AuthorStats(ctx context.Context, userID uint) (*models.DashboardStats, error)
	Update(ctx context.Context, post *models.Post, tagNames []string) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db   *gorm.DB
	tags TagRepository
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, tags: NewTagRepository(db)}
}

// Create persists a new post. The slug is derived from the title inside the
// insert transaction and never reassigned afterwards.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := uniqueSlug(tx, &models.Post{}, post.Title)
		if err != nil {
			return err
		}
		post.Slug = s

		if post.Status == models.StatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}

		tags, err := r.tags.FindOrCreate(tx, tagNames)
		if err != nil {
			return err
		}
		post.Tags = tags

		return tx.Create(post).Error
	})
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("Tags").
		Where("slug = ?", slug).
		First(&post).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Post", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) ListPublished(ctx context.Context, f PostFilter, page, size int) ([]*models.Post, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("posts.status = ?", models.StatusPublished)

	if f.CategoryID != nil {
		tx = tx.Where("posts.category_id = ?", *f.CategoryID)
	}
	if f.Query != "" {
		pattern := "%" + strings.ToLower(f.Query) + "%"
		tx = tx.Where("LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?", pattern, pattern)
	}

	return r.paginate(tx, page, size)
}

func (r *postRepository) ListPublishedByTag(ctx context.Context, tagID uint, page, size int) ([]*models.Post, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ?", tagID).
		Where("posts.status = ?", models.StatusPublished)

	return r.paginate(tx, page, size)
}

func (r *postRepository) ListByAuthor(ctx context.Context, userID uint, page, size int) ([]*models.Post, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("posts.user_id = ?", userID)

	return r.paginate(tx, page, size)
}

// paginate counts the filtered set, then returns one reverse-chronological
// page with the display associations preloaded. An out-of-range page clamps
// to the last page rather than coming back empty.
func (r *postRepository) paginate(tx *gorm.DB, page, size int) ([]*models.Post, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	if pages := int((total + int64(size) - 1) / int64(size)); pages > 0 && page > pages {
		page = pages
	}

	var posts []*models.Post
	err := tx.
		Preload("User").
		Preload("Category").
		Preload("Tags").
		Order("posts.created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

func (r *postRepository) AuthorStats(ctx context.Context, userID uint) (*models.DashboardStats, error) {
	db := r.db.WithContext(ctx)
	own := func() *gorm.DB {
		return db.Model(&models.Post{}).Where("user_id = ?", userID)
	}

	var stats models.DashboardStats
	if err := own().Count(&stats.TotalPosts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := own().Where("status = ?", models.StatusPublished).Count(&stats.PublishedCount).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := own().Where("status = ?", models.StatusDraft).Count(&stats.DraftCount).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := own().Where("category_id IS NOT NULL").Distinct("category_id").Count(&stats.DistinctCategories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}

// Update persists edits to an existing post. The slug is left untouched;
// PublishedAt is stamped on the first transition to published.
func (r *postRepository) Update(ctx context.Context, post *models.Post, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if post.Status == models.StatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}

		tags, err := r.tags.FindOrCreate(tx, tagNames)
		if err != nil {
			return err
		}

		if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
			return err
		}
		post.Tags = tags

		return tx.Omit(clause.Associations).Save(post).Error
	})
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
