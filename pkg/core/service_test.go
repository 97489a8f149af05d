package core

import (
	"context"
	"errors"
	"testing"
)

// memRepo is an in-memory Repository for service-level tests.
type memRepo struct {
	posts map[string]Post
	lsn   int64
}

func newMemRepo() *memRepo {
	return &memRepo{posts: make(map[string]Post)}
}

func (m *memRepo) Save(ctx context.Context, p Post) error {
	m.posts[p.ID] = p
	m.lsn++
	return nil
}

func (m *memRepo) Get(ctx context.Context, id string) (Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (m *memRepo) List(ctx context.Context) ([]Post, error) {
	out := make([]Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p)
	}
	return out, nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	m.lsn++
	return nil
}

func (m *memRepo) Initialize(ctx context.Context) error { return nil }

func (m *memRepo) VaultID() string { return "mem-vault" }

func (m *memRepo) LSN(ctx context.Context) (int64, error) { return m.lsn, nil }

func validMeta() Metadata {
	return Metadata{
		"layout": "post",
		"title":  "Welcome",
		"date":   "2019-06-03",
	}
}

func TestSavePostValidation(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	t.Run("Valid Post", func(t *testing.T) {
		if err := svc.SavePost(ctx, "2019-06-03-welcome", "body", validMeta()); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	})

	t.Run("Empty ID", func(t *testing.T) {
		if err := svc.SavePost(ctx, "", "body", validMeta()); err == nil {
			t.Error("Expected error for empty ID")
		}
	})

	t.Run("Missing Front Matter", func(t *testing.T) {
		if err := svc.SavePost(ctx, "2019-06-03-bare", "body", nil); err == nil {
			t.Error("Expected validation error for missing front matter")
		}
	})

	t.Run("Filename Date Disagreement", func(t *testing.T) {
		meta := validMeta()
		meta["date"] = "2020-01-01"
		if err := svc.SavePost(ctx, "2019-06-03-welcome", "body", meta); err == nil {
			t.Error("Expected error when filename date disagrees with front matter")
		}
	})

	t.Run("Undated Page Needs Only Front Matter Date", func(t *testing.T) {
		if err := svc.SavePost(ctx, "about", "body", validMeta()); err != nil {
			t.Errorf("Expected undated page to save, got %v", err)
		}
	})
}

func TestGetAndDelete(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	if err := svc.SavePost(ctx, "2019-06-03-a", "body", validMeta()); err != nil {
		t.Fatal(err)
	}

	post, err := svc.GetPost(ctx, "2019-06-03-a")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if post.Body != "body" {
		t.Errorf("Expected body 'body', got %q", post.Body)
	}

	if err := svc.DeletePost(ctx, "2019-06-03-a"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := svc.GetPost(ctx, "2019-06-03-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSequence(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	vaultID, lsn, err := svc.Sequence(ctx)
	if err != nil {
		t.Fatalf("Sequence failed: %v", err)
	}
	if vaultID != "mem-vault" || lsn != 0 {
		t.Errorf("Expected (mem-vault, 0), got (%s, %d)", vaultID, lsn)
	}

	if err := svc.SavePost(ctx, "2019-06-03-b", "x", validMeta()); err != nil {
		t.Fatal(err)
	}

	_, lsn, err = svc.Sequence(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if lsn != 1 {
		t.Errorf("Expected LSN 1 after one write, got %d", lsn)
	}
}

func TestUnsupportedCapabilities(t *testing.T) {
	// A repository that is only a Repository: no sync, no transactions,
	// no watch, no sequence.
	svc := NewService(bareRepo{})
	ctx := context.Background()

	if err := svc.Sync(ctx); err == nil {
		t.Error("Expected error for unsupported sync")
	}
	if _, err := svc.Begin(ctx); err == nil {
		t.Error("Expected error for unsupported transactions")
	}
	if _, err := svc.Watch(ctx, ""); err == nil {
		t.Error("Expected error for unsupported watch")
	}
	if _, _, err := svc.Sequence(ctx); err == nil {
		t.Error("Expected error for unsupported sequence")
	}
}

type bareRepo struct{}

func (bareRepo) Save(ctx context.Context, p Post) error { return nil }
func (bareRepo) Get(ctx context.Context, id string) (Post, error) {
	return Post{}, ErrNotFound
}
func (bareRepo) List(ctx context.Context) ([]Post, error) { return nil, nil }
func (bareRepo) Delete(ctx context.Context, id string) error { return nil }
func (bareRepo) Initialize(ctx context.Context) error     { return nil }
