package fs

import (
	"context"
	"errors"
	"testing"

	"github.com/postbed/postbed/pkg/core"
)

func TestTransactionCommit(t *testing.T) {
	repo := newGitlessRepo(t)
	ctx := context.Background()

	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if err := tx.Save(ctx, samplePost("2026-08-30-tx-a")); err != nil {
		t.Fatal(err)
	}
	if err := tx.Save(ctx, samplePost("2026-08-30-tx-b")); err != nil {
		t.Fatal(err)
	}

	// Nothing visible before commit.
	if _, err := repo.Get(ctx, "2026-08-30-tx-a"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected staged post to be invisible, got %v", err)
	}

	if err := tx.Commit(ctx, "add two posts"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	for _, id := range []string{"2026-08-30-tx-a", "2026-08-30-tx-b"} {
		if _, err := repo.Get(ctx, id); err != nil {
			t.Errorf("Expected %s after commit: %v", id, err)
		}
	}

	// The whole batch advances the sequence once.
	lsn, err := repo.LSN(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if lsn != 1 {
		t.Errorf("Expected LSN 1 for one batch, got %d", lsn)
	}
}

func TestTransactionStagedReads(t *testing.T) {
	repo := newGitlessRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, samplePost("2026-08-30-base")); err != nil {
		t.Fatal(err)
	}

	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Staged version shadows the committed one.
	updated := samplePost("2026-08-30-base")
	updated.Body = "updated body"
	if err := tx.Save(ctx, updated); err != nil {
		t.Fatal(err)
	}

	got, err := tx.Get(ctx, "2026-08-30-base")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Body != "updated body" {
		t.Errorf("Expected staged body, got %q", got.Body)
	}

	// Staged deletion hides the post inside the transaction.
	if err := tx.Delete(ctx, "2026-08-30-base"); err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Get(ctx, "2026-08-30-base"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for staged deletion, got %v", err)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestTransactionRollback(t *testing.T) {
	repo := newGitlessRepo(t)
	ctx := context.Background()

	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Save(ctx, samplePost("2026-08-30-doomed")); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := repo.Get(ctx, "2026-08-30-doomed"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected nothing after rollback, got %v", err)
	}

	// Closed transactions reject further use.
	if err := tx.Save(ctx, samplePost("2026-08-30-late")); err == nil {
		t.Error("Expected error saving on closed transaction")
	}
}

func TestTransactionCommitDeletes(t *testing.T) {
	repo := newGitlessRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, samplePost("2026-08-30-gone")); err != nil {
		t.Fatal(err)
	}

	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Delete(ctx, "2026-08-30-gone"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx, ""); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if _, err := repo.Get(ctx, "2026-08-30-gone"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected post removed after commit, got %v", err)
	}
}

func TestEmptyTransactionDoesNotAdvanceSequence(t *testing.T) {
	repo := newGitlessRepo(t)
	ctx := context.Background()

	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx, ""); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	lsn, err := repo.LSN(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if lsn != 0 {
		t.Errorf("Expected LSN 0 for empty batch, got %d", lsn)
	}
}
