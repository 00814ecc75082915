package repository

import (
	"context"
	"testing"
	"time"

	"blog/internal/database"
	"blog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// fixture seeds rows for a single test.
type fixture struct {
	t    *testing.T
	db   *gorm.DB
	base time.Time
}

func newFixture(t *testing.T, db *gorm.DB) *fixture {
	return &fixture{t: t, db: db, base: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fixture) user(name string, staff bool) models.User {
	f.t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", IsStaff: staff}
	require.NoError(f.t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) tag(title string) models.Tag {
	f.t.Helper()
	tag := models.Tag{Title: title}
	require.NoError(f.t, f.db.Create(&tag).Error)
	return tag
}

// post publishes a post dayOffset days after the fixture base time.
func (f *fixture) post(slug string, author models.User, dayOffset int, tags ...models.Tag) models.Post {
	f.t.Helper()
	p := models.Post{
		Title:       "Title " + slug,
		Text:        "Body of " + slug,
		Slug:        slug,
		AuthorID:    author.ID,
		PublishedAt: f.base.AddDate(0, 0, dayOffset),
		Tags:        tags,
	}
	require.NoError(f.t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) like(p models.Post, users ...models.User) {
	f.t.Helper()
	for _, u := range users {
		require.NoError(f.t, f.db.Exec("INSERT INTO post_likes (post_id, user_id) VALUES (?, ?)", p.ID, u.ID).Error)
	}
}

func (f *fixture) comment(p models.Post, author models.User, text string, minuteOffset int) models.Comment {
	f.t.Helper()
	c := models.Comment{
		PostID:      p.ID,
		AuthorID:    author.ID,
		Text:        text,
		PublishedAt: f.base.Add(time.Duration(minuteOffset) * time.Minute),
	}
	require.NoError(f.t, f.db.Create(&c).Error)
	return c
}

func (f *fixture) readers(n int) []models.User {
	f.t.Helper()
	users := make([]models.User, n)
	for i := range users {
		users[i] = f.user("reader"+string(rune('a'+i)), false)
	}
	return users
}

func slugs(posts []*AnnotatedPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Post.Slug
	}
	return out
}

// emptyCounts answers every lookup with no rows.
type emptyCounts struct{}

func (emptyCounts) LikesCountByPost(_ context.Context, _ []uint) (map[uint]int, error) {
	return map[uint]int{}, nil
}

func (emptyCounts) CommentsCountByPost(_ context.Context, _ []uint) (map[uint]int, error) {
	return map[uint]int{}, nil
}

func (emptyCounts) PostsCountByTag(_ context.Context, _ []uint) (map[uint]int, error) {
	return map[uint]int{}, nil
}
