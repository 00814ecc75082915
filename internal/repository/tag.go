package repository

import (
	"context"
	"fmt"

	"blog/internal/models"
	"blog/internal/observability"

	"gorm.io/gorm"
)

// TagRepository defines the interface for tag queries
type TagRepository interface {
	Popular(ctx context.Context, limit int) ([]*AnnotatedTag, error)
	FetchWithPostsCount(ctx context.Context, tags []*AnnotatedTag) ([]*AnnotatedTag, error)
	GetByTitle(ctx context.Context, title string) (*models.Tag, error)
}

type tagRepository struct {
	db     *gorm.DB
	counts CountRepository
	log    *observability.RepoLogger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB, counts CountRepository) TagRepository {
	return &tagRepository{
		db:     db,
		counts: counts,
		log:    observability.NewRepoLogger("tags"),
	}
}

type tagCountRow struct {
	ID         uint
	Title      string
	PostsCount int
}

// Popular returns the tags used by the most posts, ties by title.
func (r *tagRepository) Popular(ctx context.Context, limit int) ([]*AnnotatedTag, error) {
	var rows []tagCountRow
	err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Select("tags.id AS id, tags.title AS title, COUNT(post_tags.post_id) AS posts_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Group("tags.id, tags.title").
		Order("posts_count DESC, " + models.TagOrder).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		r.log.LogError(ctx, err, "popular")
		return nil, err
	}

	out := make([]*AnnotatedTag, len(rows))
	for i, row := range rows {
		out[i] = &AnnotatedTag{
			Tag:        &models.Tag{ID: row.ID, Title: row.Title},
			PostsCount: row.PostsCount,
		}
	}
	r.log.LogRead(ctx, "popular", map[string]interface{}{"limit": limit, "rows": len(out)})
	return out, nil
}

// FetchWithPostsCount sets PostsCount on every tag with one query.
func (r *tagRepository) FetchWithPostsCount(ctx context.Context, tags []*AnnotatedTag) ([]*AnnotatedTag, error) {
	if len(tags) == 0 {
		return tags, nil
	}

	counts, err := r.counts.PostsCountByTag(ctx, tagIDs(tags))
	if err != nil {
		r.log.LogError(ctx, err, "fetch_with_posts_count")
		return nil, fmt.Errorf("count tag posts: %w", err)
	}

	for _, t := range tags {
		n, ok := counts[t.Tag.ID]
		if !ok {
			return nil, missingCount("tag", t.Tag.ID)
		}
		t.PostsCount = n
	}
	return tags, nil
}

// GetByTitle finds a tag by its exact stored title.
func (r *tagRepository) GetByTitle(ctx context.Context, title string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("title = ?", title).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}
