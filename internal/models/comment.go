package models

import "time"

// CommentOrder is the default ordering for comments: oldest first.
const CommentOrder = "comments.published_at ASC, comments.id ASC"

// Comment is a reader's reply under a post.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PublishedAt time.Time `gorm:"not null;index" json:"published_at"`
}
