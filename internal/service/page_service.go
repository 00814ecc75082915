// Package service assembles the data each blog page renders.
package service

import (
	"context"
	"errors"
	"fmt"

	"blog/internal/models"
	"blog/internal/observability"
	"blog/internal/repository"

	"gorm.io/gorm"
)

const (
	// SidebarSize is how many popular posts, fresh posts and tags a page lists.
	SidebarSize = 5
	// TagPageSize caps the posts listed on a tag page.
	TagPageSize = 20
)

// IndexPage is the context of the home page.
type IndexPage struct {
	MostPopularPosts []PostSummary `json:"most_popular_posts"`
	PagePosts        []PostSummary `json:"page_posts"`
	PopularTags      []TagRecord   `json:"popular_tags"`
}

// PostDetailPage is the context of a single post page.
type PostDetailPage struct {
	Post             PostDetail    `json:"post"`
	MostPopularPosts []PostSummary `json:"most_popular_posts"`
	PopularTags      []TagRecord   `json:"popular_tags"`
}

// TagFilterPage is the context of the posts-by-tag page.
type TagFilterPage struct {
	Tag              string        `json:"tag"`
	Posts            []PostSummary `json:"posts"`
	MostPopularPosts []PostSummary `json:"most_popular_posts"`
	PopularTags      []TagRecord   `json:"popular_tags"`
}

type PageService struct {
	posts    repository.PostRepository
	tags     repository.TagRepository
	comments repository.CommentRepository
	mediaURL string
}

func NewPageService(
	posts repository.PostRepository,
	tags repository.TagRepository,
	comments repository.CommentRepository,
	mediaURL string,
) *PageService {
	return &PageService{
		posts:    posts,
		tags:     tags,
		comments: comments,
		mediaURL: mediaURL,
	}
}

// Index builds the home page.
func (s *PageService) Index(ctx context.Context) (page *IndexPage, err error) {
	defer func() { recordPage("index", err) }()

	popular, err := s.popularPosts(ctx)
	if err != nil {
		return nil, err
	}

	fresh, err := s.posts.Fresh(ctx, SidebarSize)
	if err != nil {
		return nil, fmt.Errorf("fresh posts: %w", err)
	}
	if fresh, err = s.enrich(ctx, fresh); err != nil {
		return nil, err
	}

	tags, err := s.popularTags(ctx)
	if err != nil {
		return nil, err
	}

	return &IndexPage{
		MostPopularPosts: popular,
		PagePosts:        serializePosts(fresh, s.mediaURL),
		PopularTags:      tags,
	}, nil
}

// PostDetail builds the page of the post with the given slug.
func (s *PageService) PostDetail(ctx context.Context, slug string) (page *PostDetailPage, err error) {
	defer func() { recordPage("post_detail", err) }()

	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("post", slug)
		}
		return nil, fmt.Errorf("post %q: %w", slug, err)
	}

	comments, err := s.comments.ListByPost(ctx, post.Post.ID)
	if err != nil {
		return nil, fmt.Errorf("comments of post %d: %w", post.Post.ID, err)
	}

	tags, err := s.tags.FetchWithPostsCount(ctx, repository.AnnotateTags(post.Post.Tags))
	if err != nil {
		return nil, err
	}

	detail := PostDetail{
		Title:       post.Post.Title,
		Text:        post.Post.Text,
		Author:      post.Post.Author.Username,
		Comments:    make([]CommentRecord, len(comments)),
		LikesAmount: post.LikesCount,
		ImageURL:    MediaURL(s.mediaURL, post.Post.Image),
		PublishedAt: post.Post.PublishedAt,
		Slug:        post.Post.Slug,
		Tags:        serializeTags(tags),
	}
	for i, c := range comments {
		detail.Comments[i] = CommentRecord{
			Text:        c.Text,
			PublishedAt: c.PublishedAt,
			Author:      c.Author.Username,
		}
	}

	popular, err := s.popularPosts(ctx)
	if err != nil {
		return nil, err
	}
	popularTags, err := s.popularTags(ctx)
	if err != nil {
		return nil, err
	}

	return &PostDetailPage{
		Post:             detail,
		MostPopularPosts: popular,
		PopularTags:      popularTags,
	}, nil
}

// TagFilter builds the page listing the newest posts with the given tag.
func (s *PageService) TagFilter(ctx context.Context, title string) (page *TagFilterPage, err error) {
	defer func() { recordPage("tag_filter", err) }()

	tag, err := s.tags.GetByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("tag", title)
		}
		return nil, fmt.Errorf("tag %q: %w", title, err)
	}

	popularTags, err := s.popularTags(ctx)
	if err != nil {
		return nil, err
	}
	popular, err := s.popularPosts(ctx)
	if err != nil {
		return nil, err
	}

	related, err := s.posts.ByTag(ctx, tag.ID, TagPageSize)
	if err != nil {
		return nil, fmt.Errorf("posts with tag %q: %w", title, err)
	}
	if related, err = s.enrich(ctx, related); err != nil {
		return nil, err
	}

	return &TagFilterPage{
		Tag:              tag.Title,
		Posts:            serializePosts(related, s.mediaURL),
		MostPopularPosts: popular,
		PopularTags:      popularTags,
	}, nil
}

// enrich runs the two fetches every post listing needs.
func (s *PageService) enrich(ctx context.Context, posts []*repository.AnnotatedPost) ([]*repository.AnnotatedPost, error) {
	posts, err := s.posts.FetchPostsCountForTags(ctx, posts)
	if err != nil {
		return nil, err
	}
	return s.posts.FetchWithCommentsCount(ctx, posts)
}

func (s *PageService) popularPosts(ctx context.Context) ([]PostSummary, error) {
	posts, err := s.posts.Popular(ctx, SidebarSize)
	if err != nil {
		return nil, fmt.Errorf("popular posts: %w", err)
	}
	if posts, err = s.enrich(ctx, posts); err != nil {
		return nil, err
	}
	return serializePosts(posts, s.mediaURL), nil
}

func (s *PageService) popularTags(ctx context.Context) ([]TagRecord, error) {
	tags, err := s.tags.Popular(ctx, SidebarSize)
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	return serializeTags(tags), nil
}

func recordPage(page string, err error) {
	outcome := "ok"
	switch {
	case models.IsNotFound(err):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	observability.PageRenders.WithLabelValues(page, outcome).Inc()
}
