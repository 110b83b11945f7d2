package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a shared taxonomy label. Any authenticated user may manage
// categories; UserID records who created one for attribution only.
type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"unique;not null" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`
	UserID    uint           `json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:CategoryID" json:"posts,omitempty"`
}

// CategoryCount is a category annotated with its published post count.
// Draft posts never contribute to PostCount.
type CategoryCount struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PostCount int64  `json:"post_count"`
}
