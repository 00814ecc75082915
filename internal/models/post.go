// Package models contains the blog's persisted entities.
package models

import (
	"fmt"
	"time"

	"blog/internal/validation"

	"gorm.io/gorm"
)

// PostOrder is the default ordering for post listings: newest first.
const PostOrder = "posts.published_at DESC, posts.id DESC"

// Post is a published blog entry.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Slug        string    `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Image       string    `gorm:"size:255" json:"image"`
	PublishedAt time.Time `gorm:"not null;index" json:"published_at"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Likes       []User    `gorm:"many2many:post_likes;constraint:OnDelete:CASCADE" json:"-"`
	Tags        []Tag     `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Comments    []Comment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeSave validates the slug and checks that the author is staff.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if err := validation.ValidatePostSlug(p.Slug); err != nil {
		return NewValidationError(err.Error())
	}

	authorID := p.AuthorID
	if authorID == 0 {
		authorID = p.Author.ID
	}
	if authorID == 0 {
		return NewValidationError("post author is required")
	}

	var staff []bool
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&User{}).
		Where("id = ?", authorID).
		Pluck("is_staff", &staff).Error
	if err != nil {
		return fmt.Errorf("check post author: %w", err)
	}
	if len(staff) == 0 || !staff[0] {
		return ErrAuthorNotStaff
	}
	return nil
}
