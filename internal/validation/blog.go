// Package validation holds field checks applied before blog entities are saved.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxSlugLength     = 200
	maxTagTitleLength = 20
)

var postSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidatePostSlug checks that slug is usable as a URL path segment.
func ValidatePostSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug is required")
	}
	if len(slug) > maxSlugLength {
		return fmt.Errorf("slug must be at most %d characters", maxSlugLength)
	}
	if !postSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug may contain only letters, numbers, underscores, and hyphens")
	}
	return nil
}

// NormalizeTagTitle trims and lowercases a tag title and checks its length.
func NormalizeTagTitle(title string) (string, error) {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return "", fmt.Errorf("tag title is required")
	}
	if utf8.RuneCountInString(title) > maxTagTitleLength {
		return "", fmt.Errorf("tag title must be at most %d characters", maxTagTitleLength)
	}
	return title, nil
}
