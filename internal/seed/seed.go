// Package seed fills a development database with a believable blog: staff
// authors, readers, tags, posts, comments and likes.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blog/internal/middleware"
	"blog/internal/models"

	"gorm.io/gorm"
)

// Options controls how much data Seed creates.
type Options struct {
	Staff       int
	Readers     int
	Tags        int
	Posts       int
	MaxComments int
	MaxTags     int
	// RandSeed makes runs reproducible; zero picks a time-based seed.
	RandSeed int64
	// Now anchors publish times. Zero means the current time, or
	// ReproducibleEpoch when RandSeed is set.
	Now          time.Time
	PasswordCost int
	Clean        bool
}

// ReproducibleEpoch is the publish time base for runs with an explicit RandSeed.
var ReproducibleEpoch = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

// DefaultOptions is what `seed` runs with when no flags are given.
func DefaultOptions() Options {
	return Options{
		Staff:       3,
		Readers:     30,
		Tags:        12,
		Posts:       40,
		MaxComments: 6,
		MaxTags:     3,
		Clean:       true,
	}
}

// Summary reports what a seeding run created.
type Summary struct {
	Users    int
	Tags     int
	Posts    int
	Comments int
	Likes    int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d tags, %d posts, %d comments, %d likes",
		s.Users, s.Tags, s.Posts, s.Comments, s.Likes)
}

// Seed creates demo data in one transaction.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (Summary, error) {
	if opts.Staff < 1 {
		return Summary{}, fmt.Errorf("at least one staff user is required to author posts")
	}
	if opts.RandSeed == 0 {
		opts.RandSeed = time.Now().UnixNano()
	} else if opts.Now.IsZero() {
		opts.Now = ReproducibleEpoch
	}

	var summary Summary
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clean {
			if err := Clear(tx); err != nil {
				return err
			}
		}

		f := NewFactory(tx, opts)

		staff, err := f.CreateUsers(opts.Staff, true)
		if err != nil {
			return fmt.Errorf("create staff: %w", err)
		}
		readers, err := f.CreateUsers(opts.Readers, false)
		if err != nil {
			return fmt.Errorf("create readers: %w", err)
		}
		summary.Users = len(staff) + len(readers)

		tags, err := f.CreateTags(opts.Tags)
		if err != nil {
			return fmt.Errorf("create tags: %w", err)
		}
		summary.Tags = len(tags)

		everyone := append(append([]models.User{}, staff...), readers...)
		for i := 0; i < opts.Posts; i++ {
			post, err := f.CreatePost(staff[f.faker.Number(0, len(staff)-1)], f.pickTags(tags))
			if err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			summary.Posts++

			n, err := f.CreateComments(post, everyone, f.faker.Number(0, opts.MaxComments))
			if err != nil {
				return fmt.Errorf("create comments: %w", err)
			}
			summary.Comments += n

			likes, err := f.Like(post, readers)
			if err != nil {
				return fmt.Errorf("create likes: %w", err)
			}
			summary.Likes += likes
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	middleware.Logger.InfoContext(ctx, "database seeded", slog.String("summary", summary.String()))
	return summary, nil
}

// Clear removes all blog rows, children first.
func Clear(db *gorm.DB) error {
	for _, table := range []string{"post_likes", "post_tags", "comments", "posts", "tags", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Slugify turns a title into a URL-safe slug.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
