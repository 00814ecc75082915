package repository

import (
	"context"
	"fmt"

	"blog/internal/models"
	"blog/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post queries
type PostRepository interface {
	Popular(ctx context.Context, limit int) ([]*AnnotatedPost, error)
	Fresh(ctx context.Context, limit int) ([]*AnnotatedPost, error)
	ByTag(ctx context.Context, tagID uint, limit int) ([]*AnnotatedPost, error)
	GetBySlug(ctx context.Context, slug string) (*AnnotatedPost, error)
	FetchWithCommentsCount(ctx context.Context, posts []*AnnotatedPost) ([]*AnnotatedPost, error)
	FetchPostsCountForTags(ctx context.Context, posts []*AnnotatedPost) ([]*AnnotatedPost, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db     *gorm.DB
	counts CountRepository
	log    *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB, counts CountRepository) PostRepository {
	return &postRepository{
		db:     db,
		counts: counts,
		log:    observability.NewRepoLogger("posts"),
	}
}

// withDetails eager-loads what every post listing renders.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order(models.TagOrder)
		})
}

type likesRow struct {
	ID         uint
	LikesCount int
}

// Popular returns the most liked posts. Ties go to the newer post.
func (r *postRepository) Popular(ctx context.Context, limit int) ([]*AnnotatedPost, error) {
	var ranked []likesRow
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.id AS id, COUNT(post_likes.user_id) AS likes_count").
		Joins("LEFT JOIN post_likes ON post_likes.post_id = posts.id").
		Group("posts.id, posts.published_at").
		Order("likes_count DESC, " + models.PostOrder).
		Limit(limit).
		Scan(&ranked).Error
	if err != nil {
		r.log.LogError(ctx, err, "popular")
		return nil, err
	}
	if len(ranked) == 0 {
		return []*AnnotatedPost{}, nil
	}

	ids := make([]uint, len(ranked))
	for i, row := range ranked {
		ids[i] = row.ID
	}

	var posts []models.Post
	if err := withDetails(r.db.WithContext(ctx)).Where("posts.id IN ?", ids).Find(&posts).Error; err != nil {
		r.log.LogError(ctx, err, "popular")
		return nil, err
	}

	byID := make(map[uint]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}

	out := make([]*AnnotatedPost, 0, len(ranked))
	for _, row := range ranked {
		post, ok := byID[row.ID]
		if !ok {
			// deleted between the two queries
			continue
		}
		out = append(out, &AnnotatedPost{Post: post, LikesCount: row.LikesCount})
	}

	r.log.LogRead(ctx, "popular", map[string]interface{}{"limit": limit, "rows": len(out)})
	return out, nil
}

// Fresh returns the newest posts.
func (r *postRepository) Fresh(ctx context.Context, limit int) ([]*AnnotatedPost, error) {
	var posts []models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Order(models.PostOrder).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		r.log.LogError(ctx, err, "fresh")
		return nil, err
	}
	return AnnotatePosts(posts), nil
}

// ByTag returns the newest posts carrying tagID.
func (r *postRepository) ByTag(ctx context.Context, tagID uint, limit int) ([]*AnnotatedPost, error) {
	var posts []models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ?", tagID).
		Order(models.PostOrder).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		r.log.LogError(ctx, err, "by_tag")
		return nil, err
	}
	return AnnotatePosts(posts), nil
}

// GetBySlug loads one post with its likes count. A missing slug returns
// gorm.ErrRecordNotFound.
func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*AnnotatedPost, error) {
	var post models.Post
	if err := withDetails(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}

	likes, err := r.counts.LikesCountByPost(ctx, []uint{post.ID})
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	n, ok := likes[post.ID]
	if !ok {
		return nil, missingCount("post", post.ID)
	}

	return &AnnotatedPost{Post: &post, LikesCount: n}, nil
}

// FetchWithCommentsCount sets CommentsCount on every post with one query.
func (r *postRepository) FetchWithCommentsCount(ctx context.Context, posts []*AnnotatedPost) ([]*AnnotatedPost, error) {
	if len(posts) == 0 {
		return posts, nil
	}

	counts, err := r.counts.CommentsCountByPost(ctx, postIDs(posts))
	if err != nil {
		r.log.LogError(ctx, err, "fetch_with_comments_count")
		return nil, fmt.Errorf("count comments: %w", err)
	}

	for _, p := range posts {
		n, ok := counts[p.Post.ID]
		if !ok {
			return nil, missingCount("post", p.Post.ID)
		}
		p.CommentsCount = n
	}
	return posts, nil
}

// FetchPostsCountForTags annotates each post's tags with their global post
// counts. Tags must have been loaded with the posts; a post without tags gets
// an empty, non-nil Tags slice.
func (r *postRepository) FetchPostsCountForTags(ctx context.Context, posts []*AnnotatedPost) ([]*AnnotatedPost, error) {
	var ids []uint
	seen := make(map[uint]struct{})
	for _, p := range posts {
		for _, t := range p.Post.Tags {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			ids = append(ids, t.ID)
		}
	}

	counts := map[uint]int{}
	if len(ids) > 0 {
		var err error
		counts, err = r.counts.PostsCountByTag(ctx, ids)
		if err != nil {
			r.log.LogError(ctx, err, "fetch_posts_count_for_tags")
			return nil, fmt.Errorf("count tag posts: %w", err)
		}
	}

	for _, p := range posts {
		tags := make([]*AnnotatedTag, 0, len(p.Post.Tags))
		for i := range p.Post.Tags {
			tag := &p.Post.Tags[i]
			n, ok := counts[tag.ID]
			if !ok {
				return nil, missingCount("tag", tag.ID)
			}
			tags = append(tags, &AnnotatedTag{Tag: tag, PostsCount: n})
		}
		p.Tags = tags
	}
	return posts, nil
}
