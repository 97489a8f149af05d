// Package typed provides generic, type-safe access to a vault: front
// matter maps are projected onto user structs via JSON tags.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/postbed/postbed/pkg/core"
)

// PostModel wraps a raw core.Post with a typed Meta field. It acts as a
// typed view of a post.
type PostModel[T any] struct {
	ID    string
	Body  string
	Meta  T        // The typed front matter
	Saver Saver[T] // Active Record reference interface
}

// Saver avoids tight coupling between PostModel and the Repository or
// Service that produced it.
type Saver[T any] interface {
	Save(ctx context.Context, post *PostModel[T]) error
}

// Save persists the post using the attached saver.
func (p *PostModel[T]) Save(ctx context.Context) error {
	if p.Saver == nil {
		return fmt.Errorf("post is detached (missing Saver)")
	}
	return p.Saver.Save(ctx, p)
}

// Repository wraps a core.Repository to provide type-safe access.
type Repository[T any] struct {
	repo core.Repository
}

// NewRepository creates a type-safe wrapper around an existing repository.
func NewRepository[T any](repo core.Repository) *Repository[T] {
	return &Repository[T]{repo: repo}
}

// Save persists a typed post.
func (r *Repository[T]) Save(ctx context.Context, post *PostModel[T]) error {
	meta, err := metaToMap(post.Meta)
	if err != nil {
		return err
	}

	if post.Saver == nil {
		post.Saver = r
	}

	return r.repo.Save(ctx, core.Post{
		ID:   post.ID,
		Body: post.Body,
		Meta: meta,
	})
}

// Get retrieves a post and unmarshals its front matter into T.
func (r *Repository[T]) Get(ctx context.Context, id string) (*PostModel[T], error) {
	post, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromCore(post, r)
}

// List returns all posts converted to the typed model.
func (r *Repository[T]) List(ctx context.Context) ([]*PostModel[T], error) {
	posts, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*PostModel[T], 0, len(posts))
	for _, p := range posts {
		model, err := fromCore(p, r)
		if err != nil {
			return nil, fmt.Errorf("failed to process post %s: %w", p.ID, err)
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a post by ID.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

// metaToMap converts a typed value into a metadata map via a JSON
// round trip, honoring the struct's json tags.
func metaToMap[T any](data T) (core.Metadata, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed meta: %w", err)
	}
	var meta core.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to convert typed meta to map: %w", err)
	}
	return meta, nil
}

// fromCore converts a core.Post to a PostModel.
func fromCore[T any](post core.Post, saver Saver[T]) (*PostModel[T], error) {
	raw, err := json.Marshal(post.Meta)
	if err != nil {
		return nil, fmt.Errorf("meta marshal failed: %w", err)
	}

	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal to target type failed: %w", err)
	}

	return &PostModel[T]{
		ID:    post.ID,
		Body:  post.Body,
		Meta:  data,
		Saver: saver,
	}, nil
}
