package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListWithPublishedCounts(ctx context.Context) ([]models.CategoryCount, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create persists a new category, deriving its slug from the name inside
// the insert transaction.
func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := uniqueSlug(tx, &models.Category{}, category.Name)
		if err != nil {
			return err
		}
		category.Slug = s
		if err := tx.Create(category).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				return models.NewConflictError("A category with that name already exists")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Category", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &category, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Category", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &category, nil
}

// ListWithPublishedCounts returns every category alphabetically, annotated
// with the count of its published posts. Draft posts are joined out so they
// never inflate the number.
func (r *categoryRepository) ListWithPublishedCounts(ctx context.Context) ([]models.CategoryCount, error) {
	var counts []models.CategoryCount
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("categories.id, categories.name, categories.slug, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id AND posts.status = ? AND posts.deleted_at IS NULL", models.StatusPublished).
		Group("categories.id, categories.name, categories.slug").
		Order("categories.name ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return counts, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return models.NewConflictError("A category with that name already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Category{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
