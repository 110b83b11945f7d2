package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// Toggle flips the like state for (postID, userID): absent creates a
	// row, present deletes it. Returns true when the call resulted in a
	// like, false when it resulted in an unlike.
	Toggle(ctx context.Context, postID, userID uint) (bool, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	Exists(ctx context.Context, postID, userID uint) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Toggle(ctx context.Context, postID, userID uint) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error

		switch {
		case err == nil:
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.Like{PostID: postID, UserID: userID}
			if cerr := tx.Create(&like).Error; cerr != nil {
				if errors.Is(cerr, gorm.ErrDuplicatedKey) {
					// A concurrent toggle won the insert through the unique
					// index; this call becomes the unlike half of the pair.
					return tx.Where("post_id = ? AND user_id = ?", postID, userID).
						Delete(&models.Like{}).Error
				}
				return cerr
			}
			liked = true
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *likeRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *likeRepository) Exists(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
