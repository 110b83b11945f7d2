package models

import "time"

// Like records that a user liked a post. The (UserID, PostID) pair is
// unique at the storage layer; that index is what keeps the toggle correct
// under concurrent requests from the same user. Rows are hard-deleted on
// unlike so the index never blocks a re-like.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_user_like" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_user_like" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}
