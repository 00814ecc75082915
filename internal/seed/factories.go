package seed

import (
	"fmt"
	"strings"
	"time"

	"blog/internal/models"
	"blog/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxSlugBase = 60

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db       *gorm.DB
	opts     Options
	faker    *gofakeit.Faker
	password string
	now      time.Time
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(opts.RandSeed),
		now:   now.UTC(),
	}
}

// hashedPassword hashes the shared demo password once per factory.
func (f *Factory) hashedPassword() (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	cost := f.opts.PasswordCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), cost)
	if err != nil {
		return "", err
	}
	f.password = string(hash)
	return f.password, nil
}

// CreateUsers persists count users with unique usernames.
func (f *Factory) CreateUsers(count int, staff bool) ([]models.User, error) {
	if count == 0 {
		return nil, nil
	}
	hash, err := f.hashedPassword()
	if err != nil {
		return nil, err
	}

	prefix := "reader"
	if staff {
		prefix = "editor"
	}

	users := make([]models.User, count)
	for i := range users {
		name := fmt.Sprintf("%s_%s_%d", prefix, strings.ToLower(f.faker.FirstName()), i)
		users[i] = models.User{
			Username: name,
			Email:    name + "@example.com",
			Password: hash,
			IsStaff:  staff,
		}
	}
	if err := f.db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateTags persists up to count distinct tags.
func (f *Factory) CreateTags(count int) ([]models.Tag, error) {
	seen := make(map[string]struct{}, count)
	tags := make([]models.Tag, 0, count)
	for attempts := 0; len(tags) < count && attempts < count*20; attempts++ {
		title, err := validation.NormalizeTagTitle(f.faker.HipsterWord())
		if err != nil {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		tags = append(tags, models.Tag{Title: title})
	}
	if len(tags) == 0 {
		return nil, nil
	}
	if err := f.db.Create(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (f *Factory) pickTags(tags []models.Tag) []models.Tag {
	if len(tags) == 0 || f.opts.MaxTags <= 0 {
		return nil
	}
	n := f.faker.Number(0, min(f.opts.MaxTags, len(tags)))
	picked := make([]models.Tag, 0, n)
	for _, i := range f.faker.Rand.Perm(len(tags))[:n] {
		picked = append(picked, tags[i])
	}
	return picked
}

// CreatePost persists a post by author carrying tags.
func (f *Factory) CreatePost(author models.User, tags []models.Tag) (models.Post, error) {
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), ".")

	base := Slugify(title)
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	suffix := strings.SplitN(f.faker.UUID(), "-", 2)[0]
	slug := suffix
	if base != "" {
		slug = base + "-" + suffix
	}

	var image string
	if f.faker.Bool() {
		image = "posts/" + f.faker.UUID() + ".jpg"
	}

	post := models.Post{
		Title:       title,
		Text:        f.faker.Paragraph(f.faker.Number(2, 5), 5, 12, "\n\n"),
		Slug:        slug,
		Image:       image,
		AuthorID:    author.ID,
		PublishedAt: f.now.Add(-time.Duration(f.faker.Number(1, 90*24*60)) * time.Minute),
		Tags:        tags,
	}
	if err := f.db.Omit("Tags.*").Create(&post).Error; err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// CreateComments adds count comments published after the post.
func (f *Factory) CreateComments(post models.Post, authors []models.User, count int) (int, error) {
	if count == 0 || len(authors) == 0 {
		return 0, nil
	}
	comments := make([]models.Comment, count)
	for i := range comments {
		comments[i] = models.Comment{
			PostID:      post.ID,
			AuthorID:    authors[f.faker.Number(0, len(authors)-1)].ID,
			Text:        f.faker.Sentence(f.faker.Number(4, 16)),
			PublishedAt: post.PublishedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute),
		}
	}
	if err := f.db.Create(&comments).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Like makes a random subset of readers like the post.
func (f *Factory) Like(post models.Post, readers []models.User) (int, error) {
	if len(readers) == 0 {
		return 0, nil
	}
	n := f.faker.Number(0, len(readers))
	if n == 0 {
		return 0, nil
	}
	rows := make([]map[string]interface{}, 0, n)
	for _, i := range f.faker.Rand.Perm(len(readers))[:n] {
		rows = append(rows, map[string]interface{}{"post_id": post.ID, "user_id": readers[i].ID})
	}
	if err := f.db.Table("post_likes").Create(&rows).Error; err != nil {
		return 0, err
	}
	return n, nil
}
