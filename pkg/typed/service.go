package typed

import (
	"context"

	"github.com/postbed/postbed/pkg/core"
)

// Service wraps a core.Service to provide type-safe access, keeping the
// core service's validation and transaction support.
type Service[T any] struct {
	svc *core.Service
}

// NewService creates a typed service wrapper.
func NewService[T any](svc *core.Service) *Service[T] {
	return &Service[T]{svc: svc}
}

// Save persists a typed post through the core Service, including front
// matter validation.
func (s *Service[T]) Save(ctx context.Context, post *PostModel[T]) error {
	if post.Saver == nil {
		post.Saver = s
	}

	meta, err := metaToMap(post.Meta)
	if err != nil {
		return err
	}

	return s.svc.SavePost(ctx, post.ID, post.Body, meta)
}

// Get retrieves a post via the Service.
func (s *Service[T]) Get(ctx context.Context, id string) (*PostModel[T], error) {
	post, err := s.svc.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromCore(post, s)
}

// List retrieves all posts via the Service.
func (s *Service[T]) List(ctx context.Context) ([]*PostModel[T], error) {
	posts, err := s.svc.ListPosts(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*PostModel[T], 0, len(posts))
	for _, p := range posts {
		model, err := fromCore(p, s)
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a post via the Service.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	return s.svc.DeletePost(ctx, id)
}

// Watch observes changes in the repository.
func (s *Service[T]) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return s.svc.Watch(ctx, pattern)
}

// WithTransaction executes a typed function within a transaction.
func (s *Service[T]) WithTransaction(ctx context.Context, fn func(tx *Transaction[T]) error) error {
	return s.svc.WithTransaction(ctx, func(coreTx core.Transaction) error {
		return fn(&Transaction[T]{tx: coreTx})
	})
}

// Transaction wraps a core.Transaction for typed operations.
type Transaction[T any] struct {
	tx core.Transaction
}

// Save stages a typed post within the transaction.
func (t *Transaction[T]) Save(ctx context.Context, post *PostModel[T]) error {
	if post.Saver == nil {
		post.Saver = t
	}

	meta, err := metaToMap(post.Meta)
	if err != nil {
		return err
	}

	return t.tx.Save(ctx, core.Post{
		ID:   post.ID,
		Body: post.Body,
		Meta: meta,
	})
}

// Get retrieves a post within the transaction.
func (t *Transaction[T]) Get(ctx context.Context, id string) (*PostModel[T], error) {
	post, err := t.tx.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromCore(post, t)
}

// Delete stages a removal within the transaction.
func (t *Transaction[T]) Delete(ctx context.Context, id string) error {
	return t.tx.Delete(ctx, id)
}
