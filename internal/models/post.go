package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the lifecycle flag of a post.
type PostStatus string

const (
	// StatusDraft posts are visible to their author only.
	StatusDraft PostStatus = "draft"
	// StatusPublished posts appear in every public listing.
	StatusPublished PostStatus = "published"
)

// ValidStatus reports whether s is one of the known lifecycle values.
func ValidStatus(s PostStatus) bool {
	return s == StatusDraft || s == StatusPublished
}

// Post is a blog entry. The slug is derived from the title on creation and
// never changes afterwards, so published URLs stay stable across edits.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Content     string     `gorm:"not null" json:"content"`
	ImagePath   string     `json:"image_path,omitempty"`
	Status      PostStatus `gorm:"not null;default:draft" json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CategoryID  *uint      `json:"category_id,omitempty"`
	Category    *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags        []Tag      `gorm:"many2many:post_tags" json:"tags,omitempty"`
	UserID      uint       `gorm:"not null" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"user"`
	// LikeCount is not persisted; computed at query time
	LikeCount int64 `gorm:"-" json:"like_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool           `gorm:"-" json:"liked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DashboardStats aggregates an author's own posts for the dashboard view.
type DashboardStats struct {
	TotalPosts         int64 `json:"total_posts"`
	PublishedCount     int64 `json:"published_count"`
	DraftCount         int64 `json:"draft_count"`
	DistinctCategories int64 `json:"distinct_categories_count"`
}
