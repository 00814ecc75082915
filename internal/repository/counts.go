package repository

import (
	"context"

	"blog/internal/observability"

	"gorm.io/gorm"
)

// CountRepository runs the bulk count lookups. Each method issues one query
// for the whole id set and returns an entry for every id that exists, zero
// counts included.
type CountRepository interface {
	LikesCountByPost(ctx context.Context, postIDs []uint) (map[uint]int, error)
	CommentsCountByPost(ctx context.Context, postIDs []uint) (map[uint]int, error)
	PostsCountByTag(ctx context.Context, tagIDs []uint) (map[uint]int, error)
}

type countRepository struct {
	db *gorm.DB
}

// NewCountRepository creates a new count repository
func NewCountRepository(db *gorm.DB) CountRepository {
	return &countRepository{db: db}
}

type countRow struct {
	ID    uint
	Total int
}

func (r *countRepository) LikesCountByPost(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	return r.countBy(ctx, "likes_by_post", "posts",
		"LEFT JOIN post_likes ON post_likes.post_id = posts.id",
		"COUNT(post_likes.user_id)", postIDs)
}

func (r *countRepository) CommentsCountByPost(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	return r.countBy(ctx, "comments_by_post", "posts",
		"LEFT JOIN comments ON comments.post_id = posts.id",
		"COUNT(comments.id)", postIDs)
}

func (r *countRepository) PostsCountByTag(ctx context.Context, tagIDs []uint) (map[uint]int, error) {
	return r.countBy(ctx, "posts_by_tag", "tags",
		"LEFT JOIN post_tags ON post_tags.tag_id = tags.id",
		"COUNT(post_tags.post_id)", tagIDs)
}

// countBy groups table rows restricted to ids by their primary key. The
// LEFT JOIN keeps rows without related records so they report zero.
func (r *countRepository) countBy(ctx context.Context, lookup, table, join, count string, ids []uint) (counts map[uint]int, err error) {
	if len(ids) == 0 {
		return map[uint]int{}, nil
	}

	ctx, span := observability.StartRepositorySpan(ctx, lookup, table)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.NewDatabaseMetrics(table).TrackQuery(lookup)()

	var rows []countRow
	err = r.db.WithContext(ctx).
		Table(table).
		Select(table+".id AS id, "+count+" AS total").
		Joins(join).
		Where(table+".id IN ?", ids).
		Group(table + ".id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts = make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Total
	}
	observability.RecordBulkLookup(lookup, len(rows))
	return counts, nil
}
