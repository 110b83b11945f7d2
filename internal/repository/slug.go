package repository

import (
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// uniqueSlug derives a URL-safe slug from title and probes the given column
// of model's table for collisions, appending -1, -2, ... until free. Run it
// inside the same transaction as the insert so the unique index stays the
// final arbiter.
func uniqueSlug(tx *gorm.DB, model any, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "untitled"
	}

	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := tx.Model(model).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
