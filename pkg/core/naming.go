package core

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// datePrefixRe matches the Jekyll filename convention: YEAR-MONTH-DAY-title.
var datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)

// slugRe collapses anything that is not a letter or digit into hyphens.
var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// ParsePostName splits a post ID into its date prefix and slug.
// The ID may contain directories ("tech/2019-06-03-session-tokens");
// only the base name is inspected. A missing date prefix is not an
// error: pages without dates are legal, and the zero time is returned.
// Inside a _posts directory the prefix is mandatory, per the Jekyll
// convention. A malformed date (2019-13-45) IS an error.
func ParsePostName(id string) (time.Time, string, error) {
	base := path.Base(strings.TrimSuffix(id, path.Ext(id)))

	m := datePrefixRe.FindStringSubmatch(base)
	if m == nil {
		if inPostsDir(id) {
			return time.Time{}, "", fmt.Errorf("post %q lives under _posts and needs a YEAR-MONTH-DAY- prefix", id)
		}
		return time.Time{}, base, nil
	}

	date, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid date prefix in %q: %w", id, err)
	}

	slug := m[2]
	if slug == "" {
		return time.Time{}, "", fmt.Errorf("empty slug in %q", id)
	}

	return date, slug, nil
}

func inPostsDir(id string) bool {
	for _, seg := range strings.Split(path.Dir(id), "/") {
		if seg == "_posts" {
			return true
		}
	}
	return false
}

// FormatPostName builds the canonical dated base name for a post.
func FormatPostName(date time.Time, slug string) string {
	return date.Format("2006-01-02") + "-" + slug
}

// Slugify converts a human title into a filename-safe slug.
// "Cosmos DB: Session Consistency!" -> "cosmos-db-session-consistency".
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
