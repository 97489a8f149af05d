package postbed

import (
	"strings"
	"testing"
)

func TestFormatChangeReason(t *testing.T) {
	msg := FormatChangeReason(CommitTypeDocs, "posts", "add welcome post", "")
	if !strings.HasPrefix(msg, "docs(posts): add welcome post") {
		t.Errorf("Unexpected header: %q", msg)
	}
	if !strings.HasSuffix(msg, "Powered-by: postbed") {
		t.Errorf("Expected footer, got %q", msg)
	}

	t.Run("Empty Type Falls Back To Chore", func(t *testing.T) {
		msg := FormatChangeReason("", "", "tidy", "")
		if !strings.HasPrefix(msg, "chore: tidy") {
			t.Errorf("Unexpected header: %q", msg)
		}
	})

	t.Run("Body Included", func(t *testing.T) {
		msg := FormatChangeReason(CommitTypeFix, "", "subject", "details here")
		if !strings.Contains(msg, "\n\ndetails here\n\n") {
			t.Errorf("Expected body paragraph, got %q", msg)
		}
	})
}

func TestAppendFooter(t *testing.T) {
	msg := AppendFooter("free form message")
	if !strings.HasSuffix(msg, "Powered-by: postbed") {
		t.Errorf("Expected footer, got %q", msg)
	}

	// Idempotent.
	if again := AppendFooter(msg); again != msg {
		t.Errorf("Footer duplicated: %q", again)
	}
}
