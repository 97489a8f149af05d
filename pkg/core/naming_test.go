package core

import (
	"testing"
	"time"
)

func TestParsePostName(t *testing.T) {
	t.Run("Dated Post", func(t *testing.T) {
		date, slug, err := ParsePostName("2019-06-03-session-tokens")
		if err != nil {
			t.Fatalf("ParsePostName failed: %v", err)
		}
		want := time.Date(2019, 6, 3, 0, 0, 0, 0, time.UTC)
		if !date.Equal(want) {
			t.Errorf("Expected date %v, got %v", want, date)
		}
		if slug != "session-tokens" {
			t.Errorf("Expected slug 'session-tokens', got %q", slug)
		}
	})

	t.Run("Directories And Extension Ignored", func(t *testing.T) {
		date, slug, err := ParsePostName("tech/2019-06-03-welcome.markdown")
		if err != nil {
			t.Fatalf("ParsePostName failed: %v", err)
		}
		if date.IsZero() {
			t.Error("Expected a date prefix to be detected")
		}
		if slug != "welcome" {
			t.Errorf("Expected slug 'welcome', got %q", slug)
		}
	})

	t.Run("Undated Page Is Legal", func(t *testing.T) {
		date, slug, err := ParsePostName("about")
		if err != nil {
			t.Fatalf("ParsePostName failed: %v", err)
		}
		if !date.IsZero() {
			t.Errorf("Expected zero date, got %v", date)
		}
		if slug != "about" {
			t.Errorf("Expected slug 'about', got %q", slug)
		}
	})

	t.Run("Undated File Under Posts Dir Errors", func(t *testing.T) {
		if _, _, err := ParsePostName("_posts/no-date-here"); err == nil {
			t.Error("Expected error for undated file in _posts")
		}
		if _, _, err := ParsePostName("blog/_posts/2019-06-03-fine"); err != nil {
			t.Errorf("Dated _posts file should parse: %v", err)
		}
	})

	t.Run("Malformed Date Errors", func(t *testing.T) {
		if _, _, err := ParsePostName("2019-13-45-impossible"); err == nil {
			t.Error("Expected error for month 13")
		}
	})
}

func TestFormatPostName(t *testing.T) {
	date := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if got := FormatPostName(date, "hello-world"); got != "2026-08-30-hello-world" {
		t.Errorf("Expected '2026-08-30-hello-world', got %q", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Cosmos DB: Session Consistency!": "cosmos-db-session-consistency",
		"  Hello,  World  ":               "hello-world",
		"already-a-slug":                  "already-a-slug",
		"Émigré":                          "migr", // non-ASCII collapses
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
