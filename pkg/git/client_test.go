package git

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	if !IsInstalled() {
		t.Skip("git not installed")
	}

	c := NewClient(t.TempDir(), "", nil)
	if err := c.Init(); err != nil {
		t.Fatalf("git init failed: %v", err)
	}

	// Commits need an identity in a bare test environment.
	if _, err := c.Run("config", "user.email", "test@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run("config", "user.name", "test"); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClientCommitFlow(t *testing.T) {
	c := newTestClient(t)

	if !c.IsRepo() {
		t.Fatal("Expected IsRepo true after init")
	}

	count, err := c.CommitCount()
	if err != nil {
		t.Fatalf("CommitCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 commits on fresh repo, got %d", count)
	}

	if err := os.WriteFile(filepath.Join(c.WorkDir, "a.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Add("a.md"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := c.Commit("first"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	count, err = c.CommitCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 commit, got %d", count)
	}

	if _, err := c.Head(); err != nil {
		t.Errorf("Head failed: %v", err)
	}

	status, err := c.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != "" {
		t.Errorf("Expected clean tree, got %q", status)
	}
}

func TestClientRm(t *testing.T) {
	c := newTestClient(t)

	if err := os.WriteFile(filepath.Join(c.WorkDir, "gone.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Add("gone.md"); err != nil {
		t.Fatal(err)
	}
	if err := c.Commit("add"); err != nil {
		t.Fatal(err)
	}

	if err := c.Rm("gone.md"); err != nil {
		t.Fatalf("Rm failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(c.WorkDir, "gone.md")); !os.IsNotExist(err) {
		t.Error("Expected file removed from working tree")
	}
}

func TestClientHasRemote(t *testing.T) {
	c := newTestClient(t)

	if c.HasRemote() {
		t.Error("Expected no remote on fresh repo")
	}

	if _, err := c.Run("remote", "add", "origin", "https://example.com/repo.git"); err != nil {
		t.Fatal(err)
	}
	if !c.HasRemote() {
		t.Error("Expected origin remote after adding")
	}
}

func TestClientLockIsExclusive(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	c := NewClient(t.TempDir(), "", nil)

	// Two goroutines compete; the critical sections must not overlap.
	var inside, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := c.Lock()
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > max {
				max = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if max > 1 {
		t.Errorf("Lock admitted %d holders at once", max)
	}
}
