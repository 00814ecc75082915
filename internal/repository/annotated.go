// Package repository is the query layer: base post/tag/comment queries plus
// the bulk count lookups that annotate them for a single request.
package repository

import (
	"errors"
	"fmt"

	"blog/internal/models"
)

// ErrCountMissing is returned when a bulk count lookup has no entry for a
// record it was asked about.
var ErrCountMissing = errors.New("count missing from bulk lookup")

// AnnotatedPost pairs a post with the counts derived for the current request.
// Tags stays nil until FetchPostsCountForTags has run.
type AnnotatedPost struct {
	Post          *models.Post
	LikesCount    int
	CommentsCount int
	Tags          []*AnnotatedTag
}

// AnnotatedTag pairs a tag with its global post count.
type AnnotatedTag struct {
	Tag        *models.Tag
	PostsCount int
}

// AnnotatePosts wraps posts without copying them.
func AnnotatePosts(posts []models.Post) []*AnnotatedPost {
	out := make([]*AnnotatedPost, len(posts))
	for i := range posts {
		out[i] = &AnnotatedPost{Post: &posts[i]}
	}
	return out
}

// AnnotateTags wraps tags without copying them.
func AnnotateTags(tags []models.Tag) []*AnnotatedTag {
	out := make([]*AnnotatedTag, len(tags))
	for i := range tags {
		out[i] = &AnnotatedTag{Tag: &tags[i]}
	}
	return out
}

func postIDs(posts []*AnnotatedPost) []uint {
	ids := make([]uint, 0, len(posts))
	seen := make(map[uint]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.Post.ID]; ok {
			continue
		}
		seen[p.Post.ID] = struct{}{}
		ids = append(ids, p.Post.ID)
	}
	return ids
}

func tagIDs(tags []*AnnotatedTag) []uint {
	ids := make([]uint, 0, len(tags))
	seen := make(map[uint]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t.Tag.ID]; ok {
			continue
		}
		seen[t.Tag.ID] = struct{}{}
		ids = append(ids, t.Tag.ID)
	}
	return ids
}

func missingCount(entity string, id uint) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrCountMissing)
}
