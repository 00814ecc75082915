package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/models"
	"blog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{
		Env:          "test",
		DBDriver:     config.DriverSQLite,
		DBSQLitePath: ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestService(db *gorm.DB) *PageService {
	counts := repository.NewCountRepository(db)
	return NewPageService(
		repository.NewPostRepository(db, counts),
		repository.NewTagRepository(db, counts),
		repository.NewCommentRepository(db),
		"/media/",
	)
}

type blogSeeder struct {
	t      *testing.T
	db     *gorm.DB
	base   time.Time
	author models.User
	n      int
}

func newBlogSeeder(t *testing.T, db *gorm.DB) *blogSeeder {
	author := models.User{Username: "editor", IsStaff: true}
	require.NoError(t, db.Create(&author).Error)
	return &blogSeeder{t: t, db: db, base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), author: author}
}

func (s *blogSeeder) user(name string) models.User {
	u := models.User{Username: name}
	require.NoError(s.t, s.db.Create(&u).Error)
	return u
}

func (s *blogSeeder) tag(title string) models.Tag {
	tag := models.Tag{Title: title}
	require.NoError(s.t, s.db.Create(&tag).Error)
	return tag
}

// post creates a post published hours after the base time with likes likes.
func (s *blogSeeder) post(slug string, hours, likes int, tags ...models.Tag) models.Post {
	p := models.Post{
		Title:       "Post " + slug,
		Text:        "Text of " + slug,
		Slug:        slug,
		AuthorID:    s.author.ID,
		PublishedAt: s.base.Add(time.Duration(hours) * time.Hour),
		Tags:        tags,
	}
	require.NoError(s.t, s.db.Create(&p).Error)
	for i := 0; i < likes; i++ {
		s.n++
		u := s.user(fmt.Sprintf("fan%d", s.n))
		require.NoError(s.t, s.db.Exec("INSERT INTO post_likes (post_id, user_id) VALUES (?, ?)", p.ID, u.ID).Error)
	}
	return p
}

func (s *blogSeeder) comment(p models.Post, text string, minutes int) {
	c := models.Comment{
		PostID:      p.ID,
		AuthorID:    s.author.ID,
		Text:        text,
		PublishedAt: s.base.Add(time.Duration(minutes) * time.Minute),
	}
	require.NoError(s.t, s.db.Create(&c).Error)
}

func TestPageService_Index(t *testing.T) {
	ctx := context.Background()

	t.Run("fewer posts than the sidebar", func(t *testing.T) {
		db := setupTestDB(t)
		s := newBlogSeeder(t, db)
		s.post("only", 0, 1, s.tag("go"))

		page, err := newTestService(db).Index(ctx)
		require.NoError(t, err)
		assert.Len(t, page.MostPopularPosts, 1)
		assert.Len(t, page.PagePosts, 1)
		assert.Len(t, page.PopularTags, 1)
		assert.Equal(t, TagRecord{Title: "go", PostsWithTag: 1}, page.PopularTags[0])
	})

	t.Run("caps lists and orders them", func(t *testing.T) {
		db := setupTestDB(t)
		s := newBlogSeeder(t, db)
		tags := []models.Tag{s.tag("a"), s.tag("b"), s.tag("c"), s.tag("d"), s.tag("e"), s.tag("f")}
		for i := 0; i < 8; i++ {
			p := s.post(fmt.Sprintf("post-%d", i), i, i%4, tags[i%len(tags)])
			s.comment(p, "hi", i)
		}

		page, err := newTestService(db).Index(ctx)
		require.NoError(t, err)
		require.Len(t, page.MostPopularPosts, SidebarSize)
		require.Len(t, page.PagePosts, SidebarSize)
		require.Len(t, page.PopularTags, SidebarSize)

		for i := 1; i < len(page.PagePosts); i++ {
			assert.False(t, page.PagePosts[i].PublishedAt.After(page.PagePosts[i-1].PublishedAt))
		}
		assert.Equal(t, "post-7", page.PagePosts[0].Slug)

		// posts 3 and 7 have 3 likes each; the newer one wins the tie
		assert.Equal(t, "post-7", page.MostPopularPosts[0].Slug)
		assert.Equal(t, "post-3", page.MostPopularPosts[1].Slug)

		for _, p := range page.PagePosts {
			assert.Equal(t, 1, p.CommentsAmount)
			require.Len(t, p.Tags, 1)
			assert.Equal(t, p.Tags[0].Title, p.FirstTagTitle)
		}

		// tags a and b are used twice
		assert.Equal(t, TagRecord{Title: "a", PostsWithTag: 2}, page.PopularTags[0])
		assert.Equal(t, TagRecord{Title: "b", PostsWithTag: 2}, page.PopularTags[1])
	})

	t.Run("empty blog", func(t *testing.T) {
		page, err := newTestService(setupTestDB(t)).Index(ctx)
		require.NoError(t, err)
		assert.Empty(t, page.MostPopularPosts)
		assert.Empty(t, page.PagePosts)
		assert.Empty(t, page.PopularTags)
	})
}

func TestPageService_PostDetail(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	s := newBlogSeeder(t, db)
	golang := s.tag("golang")
	web := s.tag("web")

	p := s.post("hello", 0, 2, web, golang)
	s.post("other", 1, 0, golang)
	s.comment(p, "third", 30)
	s.comment(p, "first", 10)
	s.comment(p, "second", 20)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p.ID).Update("image", "posts/hello.jpg").Error)

	svc := newTestService(db)

	page, err := svc.PostDetail(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Post hello", page.Post.Title)
	assert.Equal(t, "Text of hello", page.Post.Text)
	assert.Equal(t, "editor", page.Post.Author)
	assert.Equal(t, 2, page.Post.LikesAmount)
	require.NotNil(t, page.Post.ImageURL)
	assert.Equal(t, "/media/posts/hello.jpg", *page.Post.ImageURL)

	require.Len(t, page.Post.Comments, 3)
	assert.Equal(t, "first", page.Post.Comments[0].Text)
	assert.Equal(t, "second", page.Post.Comments[1].Text)
	assert.Equal(t, "third", page.Post.Comments[2].Text)
	assert.Equal(t, "editor", page.Post.Comments[0].Author)

	assert.Equal(t, []TagRecord{{"golang", 2}, {"web", 1}}, page.Post.Tags)
	assert.Len(t, page.MostPopularPosts, 2)
	assert.Len(t, page.PopularTags, 2)

	_, err = svc.PostDetail(ctx, "nope")
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestPageService_TagFilter(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	s := newBlogSeeder(t, db)
	golang := s.tag("golang")
	other := s.tag("other")

	for i := 0; i < 25; i++ {
		s.post(fmt.Sprintf("go-%02d", i), i, 0, golang)
	}
	s.post("unrelated", 100, 5, other)
	s.tag("empty")

	svc := newTestService(db)

	page, err := svc.TagFilter(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, "golang", page.Tag)
	require.Len(t, page.Posts, TagPageSize)
	assert.Equal(t, "go-24", page.Posts[0].Slug)
	for _, p := range page.Posts {
		assert.Contains(t, p.Tags, TagRecord{Title: "golang", PostsWithTag: 25})
	}
	assert.Equal(t, "unrelated", page.MostPopularPosts[0].Slug)

	empty, err := svc.TagFilter(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, empty.Posts)

	_, err = svc.TagFilter(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
}

// failingCounts makes every bulk lookup fail.
type failingCounts struct{ err error }

func (f failingCounts) LikesCountByPost(context.Context, []uint) (map[uint]int, error) {
	return nil, f.err
}

func (f failingCounts) CommentsCountByPost(context.Context, []uint) (map[uint]int, error) {
	return nil, f.err
}

func (f failingCounts) PostsCountByTag(context.Context, []uint) (map[uint]int, error) {
	return nil, f.err
}

func TestPageService_PropagatesLookupErrors(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	s := newBlogSeeder(t, db)
	s.post("hello", 0, 0, s.tag("go"))

	boom := errors.New("boom")
	counts := failingCounts{err: boom}
	svc := NewPageService(
		repository.NewPostRepository(db, counts),
		repository.NewTagRepository(db, counts),
		repository.NewCommentRepository(db),
		"/media/",
	)

	_, err := svc.Index(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, models.IsNotFound(err))

	_, err = svc.PostDetail(ctx, "hello")
	assert.ErrorIs(t, err, boom)
}
