package repository

import (
	"context"

	"github.com/d60-Lab/college-connect/internal/model"
)

type PostRepository interface {
	Get(ctx context.Context, id string) (*model.Post, error)
	Save(ctx context.Context, p *model.Post) error
	List(ctx context.Context) ([]*model.Post, error)
}

type postRepository struct{ store Store }

func NewPostRepository(store Store) PostRepository { return &postRepository{store: store} }

func (r *postRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	return getJSON[model.Post](ctx, r.store, postKey(id))
}

func (r *postRepository) Save(ctx context.Context, p *model.Post) error {
	return putJSON(ctx, r.store, postKey(p.ID), p)
}

// List 全表扫描
func (r *postRepository) List(ctx context.Context) ([]*model.Post, error) {
	posts, err := scanJSON[model.Post](ctx, r.store, prefixPost)
	if err != nil {
		return nil, err
	}
	out := posts[:0]
	for _, p := range posts {
		if p.ID != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	ListByPost(ctx context.Context, postID string) ([]*model.Comment, error)
}

type commentRepository struct{ store Store }

func NewCommentRepository(store Store) CommentRepository { return &commentRepository{store: store} }

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	return putJSON(ctx, r.store, commentKey(c.PostID, c.ID), c)
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	return scanJSON[model.Comment](ctx, r.store, commentPrefix(postID))
}
