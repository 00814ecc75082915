package service

import (
	"strings"
	"time"

	"blog/internal/repository"
)

// TeaserLength is the number of characters of post text shown in listings.
const TeaserLength = 200

// TagRecord is the flat form of a tag handed to templates.
type TagRecord struct {
	Title        string `json:"title"`
	PostsWithTag int    `json:"posts_with_tag"`
}

// PostSummary is the flat form of a post in listings and sidebars.
type PostSummary struct {
	Title          string      `json:"title"`
	TeaserText     string      `json:"teaser_text"`
	Author         string      `json:"author"`
	CommentsAmount int         `json:"comments_amount"`
	ImageURL       *string     `json:"image_url"`
	PublishedAt    time.Time   `json:"published_at"`
	Slug           string      `json:"slug"`
	Tags           []TagRecord `json:"tags"`
	// FirstTagTitle is empty for posts without tags.
	FirstTagTitle string `json:"first_tag_title"`
}

// CommentRecord is the flat form of a comment on the post page.
type CommentRecord struct {
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
	Author      string    `json:"author"`
}

// PostDetail is the full post rendered on its own page.
type PostDetail struct {
	Title       string          `json:"title"`
	Text        string          `json:"text"`
	Author      string          `json:"author"`
	Comments    []CommentRecord `json:"comments"`
	LikesAmount int             `json:"likes_amount"`
	ImageURL    *string         `json:"image_url"`
	PublishedAt time.Time       `json:"published_at"`
	Slug        string          `json:"slug"`
	Tags        []TagRecord     `json:"tags"`
}

// Teaser returns the first TeaserLength characters of text.
func Teaser(text string) string {
	runes := []rune(text)
	if len(runes) <= TeaserLength {
		return text
	}
	return string(runes[:TeaserLength])
}

// MediaURL joins the media prefix and a stored image path. It returns nil
// when the post has no image.
func MediaURL(prefix, image string) *string {
	if image == "" {
		return nil
	}
	u := strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(image, "/")
	return &u
}

// SerializeTag flattens an annotated tag.
func SerializeTag(tag *repository.AnnotatedTag) TagRecord {
	return TagRecord{
		Title:        tag.Tag.Title,
		PostsWithTag: tag.PostsCount,
	}
}

func serializeTags(tags []*repository.AnnotatedTag) []TagRecord {
	out := make([]TagRecord, len(tags))
	for i, t := range tags {
		out[i] = SerializeTag(t)
	}
	return out
}

// SerializePost flattens a post that has been through FetchWithCommentsCount
// and FetchPostsCountForTags.
func SerializePost(post *repository.AnnotatedPost, mediaPrefix string) PostSummary {
	summary := PostSummary{
		Title:          post.Post.Title,
		TeaserText:     Teaser(post.Post.Text),
		Author:         post.Post.Author.Username,
		CommentsAmount: post.CommentsCount,
		ImageURL:       MediaURL(mediaPrefix, post.Post.Image),
		PublishedAt:    post.Post.PublishedAt,
		Slug:           post.Post.Slug,
		Tags:           serializeTags(post.Tags),
	}
	if len(post.Tags) > 0 {
		summary.FirstTagTitle = post.Tags[0].Tag.Title
	}
	return summary
}

func serializePosts(posts []*repository.AnnotatedPost, mediaPrefix string) []PostSummary {
	out := make([]PostSummary, len(posts))
	for i, p := range posts {
		out[i] = SerializePost(p, mediaPrefix)
	}
	return out
}
