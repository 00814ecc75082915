package models

import (
	"blog/internal/validation"

	"gorm.io/gorm"
)

// TagOrder is the default ordering for tag listings.
const TagOrder = "tags.title ASC"

// Tag labels posts. Titles are unique and stored lowercase.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:20;not null;uniqueIndex" json:"title"`
	Posts []Post `gorm:"many2many:post_tags" json:"-"`
}

// BeforeSave normalizes the title before it reaches the unique index.
func (t *Tag) BeforeSave(_ *gorm.DB) error {
	title, err := validation.NormalizeTagTitle(t.Title)
	if err != nil {
		return NewValidationError(err.Error())
	}
	t.Title = title
	return nil
}
