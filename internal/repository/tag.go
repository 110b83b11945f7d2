package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// TagRepository resolves tag labels to rows. Tags are created lazily the
// first time a post uses them.
type TagRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	// FindOrCreate resolves each name to a tag row, creating missing ones.
	// It runs on the caller's transaction handle.
	FindOrCreate(tx *gorm.DB, names []string) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Tag", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &tag, nil
}

func (r *tagRepository) FindOrCreate(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		err := tx.Where("name = ?", name).First(&tag).Error
		if err == gorm.ErrRecordNotFound {
			s, serr := uniqueSlug(tx, &models.Tag{}, name)
			if serr != nil {
				return nil, serr
			}
			tag = models.Tag{Name: name, Slug: s}
			err = tx.Create(&tag).Error
		}
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
