package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Service handles the business logic for posts.
type Service struct {
	repo Repository

	mu              sync.RWMutex
	eventBufferSize int
}

// NewService creates a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, eventBufferSize: 100}
}

// SetEventBuffer overrides the buffer size used by Watch channels.
func (s *Service) SetEventBuffer(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size > 0 {
		s.eventBufferSize = size
	}
}

// SavePost saves a post after validating its front matter.
//
// Rules enforced here (not in the adapter, which stays dumb):
//  1. ID must be present.
//  2. Front matter must pass FrontMatter.Validate.
//  3. If the filename carries a date prefix, it must agree with the
//     front matter date (same calendar day).
func (s *Service) SavePost(ctx context.Context, id string, body string, meta Metadata) error {
	if id == "" {
		return errors.New("post ID cannot be empty")
	}

	fm, err := FrontMatterFromMeta(meta)
	if err != nil {
		return fmt.Errorf("invalid front matter for %s: %w", id, err)
	}
	if err := fm.Validate(); err != nil {
		return fmt.Errorf("front matter validation failed for %s: %w", id, err)
	}

	nameDate, _, err := ParsePostName(id)
	if err != nil {
		return err
	}
	if !nameDate.IsZero() {
		y1, m1, d1 := nameDate.Date()
		y2, m2, d2 := fm.Date.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return fmt.Errorf("filename date %s disagrees with front matter date %s for %s",
				nameDate.Format("2006-01-02"), fm.Date.Format("2006-01-02"), id)
		}
	}

	post := Post{
		ID:   id,
		Body: body,
		Meta: meta,
	}

	return s.repo.Save(ctx, post)
}

// GetPost retrieves a post.
func (s *Service) GetPost(ctx context.Context, id string) (Post, error) {
	if id == "" {
		return Post{}, errors.New("post ID cannot be empty")
	}
	return s.repo.Get(ctx, id)
}

// ListPosts retrieves all posts.
func (s *Service) ListPosts(ctx context.Context) ([]Post, error) {
	return s.repo.List(ctx)
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("post ID cannot be empty")
	}
	return s.repo.Delete(ctx, id)
}

// Sequence returns the vault identity and its current logical sequence
// number. Session tokens are minted from this pair.
func (s *Service) Sequence(ctx context.Context) (string, int64, error) {
	seq, ok := s.repo.(Sequenced)
	if !ok {
		return "", 0, errors.New("repository does not expose a sequence")
	}
	lsn, err := seq.LSN(ctx)
	if err != nil {
		return "", 0, err
	}
	return seq.VaultID(), lsn, nil
}

// Sync synchronizes the repository with its remote if supported.
func (s *Service) Sync(ctx context.Context) error {
	sync, ok := s.repo.(Syncable)
	if !ok {
		return errors.New("repository does not support synchronization")
	}
	return sync.Sync(ctx)
}

// WithTransaction executes a function within a transaction.
func (s *Service) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return errors.New("repository does not support transactions")
	}

	tx, err := tr.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}

	msg := "batch transaction"
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	return tx.Commit(ctx, msg)
}

// Begin initiates a transaction manually.
// Exposed for power users or custom workflows.
func (s *Service) Begin(ctx context.Context) (Transaction, error) {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return nil, errors.New("repository does not support transactions")
	}
	return tr.Begin(ctx)
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}
	return w.Watch(ctx, pattern)
}
