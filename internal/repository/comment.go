package repository

import (
	"context"

	"blog/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment queries
type CommentRepository interface {
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// ListByPost returns a post's comments oldest first, authors loaded.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order(models.CommentOrder).
		Find(&comments).Error
	return comments, err
}
