package models

import "time"

// Tag is a free-form label attached to posts through the post_tags join
// table. Tags are created on demand when a post first uses them.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	Posts     []Post    `gorm:"many2many:post_tags" json:"-"`
}
