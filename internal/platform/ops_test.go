package platform

import (
	"context"
	"testing"
	"time"

	"github.com/postbed/postbed/pkg/core"
)

func TestInitGitless(t *testing.T) {
	dir := t.TempDir()

	repo, err := Init(dir, WithAutoInit(true), WithVersioning(false))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	ctx := context.Background()
	post := core.Post{
		ID:   "2026-08-30-hello",
		Body: "hello",
		Meta: core.Metadata{"layout": "post", "title": "Hello", "date": "2026-08-30"},
	}
	if err := repo.Save(ctx, post); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Get(ctx, "2026-08-30-hello")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Body != "hello" {
		t.Errorf("Expected body 'hello', got %q", got.Body)
	}
}

func TestInitInjectedRepository(t *testing.T) {
	injected := &stubRepo{}

	repo, err := Init("ignored", WithRepository(injected))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if repo != core.Repository(injected) {
		t.Error("Expected injected repository to be returned unchanged")
	}
}

func TestInitUnknownAdapter(t *testing.T) {
	if _, err := Init(t.TempDir(), WithAdapter("s3")); err == nil {
		t.Error("Expected error for unknown adapter")
	}
}

func TestNewWiresService(t *testing.T) {
	svc, err := New(t.TempDir(), WithAutoInit(true), WithVersioning(false))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	err = svc.SavePost(ctx, "2026-08-30-wired", "body", core.Metadata{
		"layout": "post",
		"title":  "Wired",
		"date":   time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
}

func TestSyncRequiresSyncable(t *testing.T) {
	if err := Sync("ignored", WithRepository(&stubRepo{})); err == nil {
		t.Error("Expected error when repository is not syncable")
	}
}

type stubRepo struct{}

func (s *stubRepo) Save(ctx context.Context, p core.Post) error       { return nil }
func (s *stubRepo) Get(ctx context.Context, id string) (core.Post, error) {
	return core.Post{}, core.ErrNotFound
}
func (s *stubRepo) List(ctx context.Context) ([]core.Post, error) { return nil, nil }
func (s *stubRepo) Delete(ctx context.Context, id string) error   { return nil }
func (s *stubRepo) Initialize(ctx context.Context) error          { return nil }
