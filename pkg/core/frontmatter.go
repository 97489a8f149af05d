package core

import (
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FrontMatter is the typed view of the Jekyll-style keys every post carries.
// Unknown keys survive round-trips through the inline Custom map.
type FrontMatter struct {
	Layout     string         `yaml:"layout" json:"layout"`
	Title      string         `yaml:"title" json:"title"`
	Date       time.Time      `yaml:"date" json:"date"`
	Categories []string       `yaml:"categories,omitempty" json:"categories,omitempty"`
	Tags       []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	Draft      bool           `yaml:"draft,omitempty" json:"draft,omitempty"`
	Custom     map[string]any `yaml:",inline" json:"-"`
}

// Validate checks the front matter against the vault's publishing rules.
func (f FrontMatter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&f.Layout, validation.Required),
		validation.Field(&f.Date, validation.Required),
		validation.Field(&f.Categories, validation.Each(validation.Required)),
		validation.Field(&f.Tags, validation.Each(validation.Required)),
	)
}

// dateFormats lists the accepted spellings for front matter dates, most
// specific first. Jekyll accepts both bare dates and full timestamps.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a front matter date value in any accepted spelling.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

// FrontMatterFromMeta converts a raw metadata map into the typed view.
// The conversion goes through JSON so struct tags are honored; the date
// key gets a normalization pre-pass because YAML hands us time.Time while
// JSON inputs usually carry plain strings.
func FrontMatterFromMeta(meta Metadata) (FrontMatter, error) {
	var fm FrontMatter
	if meta == nil {
		return fm, nil
	}

	known := map[string]bool{
		"layout": true, "title": true, "date": true,
		"categories": true, "tags": true, "draft": true,
	}

	normalized := make(map[string]any, len(meta))
	custom := make(map[string]any)
	for k, v := range meta {
		if !known[k] {
			custom[k] = v
			continue
		}
		normalized[k] = v
	}

	if raw, ok := normalized["date"]; ok {
		switch d := raw.(type) {
		case time.Time:
			normalized["date"] = d.Format(time.RFC3339)
		case string:
			t, err := ParseDate(d)
			if err != nil {
				return fm, err
			}
			normalized["date"] = t.Format(time.RFC3339)
		}
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return fm, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := json.Unmarshal(data, &fm); err != nil {
		return fm, fmt.Errorf("failed to convert metadata to front matter: %w", err)
	}

	if len(custom) > 0 {
		fm.Custom = custom
	}
	return fm, nil
}

// Meta converts the typed front matter back into a raw metadata map.
func (f FrontMatter) Meta() Metadata {
	meta := make(Metadata, len(f.Custom)+6)
	for k, v := range f.Custom {
		meta[k] = v
	}

	if f.Layout != "" {
		meta["layout"] = f.Layout
	}
	if f.Title != "" {
		meta["title"] = f.Title
	}
	if !f.Date.IsZero() {
		meta["date"] = f.Date
	}
	if len(f.Categories) > 0 {
		meta["categories"] = f.Categories
	}
	if len(f.Tags) > 0 {
		meta["tags"] = f.Tags
	}
	if f.Draft {
		meta["draft"] = true
	}
	return meta
}
