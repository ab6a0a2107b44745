package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/im7mortal/kmutex"
	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/internal/storage"
	"github.com/d60-Lab/college-connect/pkg/logger"
)

const commentPreviewLen = 50

// CreatePostInput 发帖表单
type CreatePostInput struct {
	Content                string
	IsCollegeCommunityOnly bool
	Image                  *storage.Blob
}

// PostService 帖子、点赞与评论
type PostService interface {
	CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*model.Post, error)
	// ListFeed communityOnly 时只返回与 viewer 同校的社区帖
	ListFeed(ctx context.Context, viewerID string, communityOnly bool) ([]*model.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*model.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*model.Post, bool, error)
	AddComment(ctx context.Context, postID, authorID, content string) (*model.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*model.Comment, error)
}

type postService struct {
	posts         repository.PostRepository
	comments      repository.CommentRepository
	users         repository.UserRepository
	uploader      storage.Uploader
	notifications NotificationService
	metrics       metrics.Recorder
	clock         clock.Clock
	sanitizer     *textSanitizer
	// locks 串行化同一帖子的读改写（单进程内）
	locks *kmutex.Kmutex
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	uploader storage.Uploader,
	notifications NotificationService,
	rec metrics.Recorder,
	clk clock.Clock,
) PostService {
	return &postService{
		posts:         posts,
		comments:      comments,
		users:         users,
		uploader:      uploader,
		notifications: notifications,
		metrics:       rec,
		clock:         clk,
		sanitizer:     newTextSanitizer(),
		locks:         kmutex.New(),
	}
}

func (s *postService) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*model.Post, error) {
	content := in.Content
	if s.sanitizer.Blank(content) {
		return nil, invalid("Post content is required")
	}
	author, err := s.users.Get(ctx, authorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	if !author.Verified {
		return nil, forbidden("Only verified users can post")
	}

	p := &model.Post{
		ID:                     newID(),
		AuthorID:               authorID,
		AuthorSnapshot:         author.Snapshot(),
		Content:                content,
		IsCollegeCommunityOnly: in.IsCollegeCommunityOnly,
		LikedBy:                []string{},
		CreatedAt:              s.clock.Now().UTC(),
	}
	if in.Image != nil {
		obj, err := s.uploader.Upload(ctx, storage.BucketPostImages, authorID, in.Image)
		if err != nil {
			logger.Warn("post image upload failed", zap.String("author", authorID), zap.Error(err))
		} else {
			p.Image = obj.URL
		}
	}
	if err := s.posts.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}
	s.metrics.PostCreated()
	return p, nil
}

func sortPostsNewestFirst(posts []*model.Post) {
	sortByTime(posts,
		func(p *model.Post) time.Time { return p.CreatedAt },
		func(p *model.Post) string { return p.ID },
		true)
}

func (s *postService) ListFeed(ctx context.Context, viewerID string, communityOnly bool) ([]*model.Post, error) {
	all, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if !communityOnly {
		sortPostsNewestFirst(all)
		return all, nil
	}

	viewer, err := s.users.Get(ctx, viewerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get viewer: %w", err)
	}
	out := make([]*model.Post, 0, len(all))
	if viewer.CollegeName == "" {
		return out, nil
	}
	for _, p := range all {
		if p.IsCollegeCommunityOnly && p.AuthorCollege == viewer.CollegeName {
			out = append(out, p)
		}
	}
	sortPostsNewestFirst(out)
	return out, nil
}

func (s *postService) ListByAuthor(ctx context.Context, authorID string) ([]*model.Post, error) {
	all, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := make([]*model.Post, 0)
	for _, p := range all {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	sortPostsNewestFirst(out)
	return out, nil
}

func (s *postService) getPost(ctx context.Context, postID string) (*model.Post, error) {
	p, err := s.posts.Get(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// actorName 通知里展示的操作者名字
func (s *postService) actorName(ctx context.Context, userID string) string {
	u, err := s.users.Get(ctx, userID)
	if err != nil || u.FullName == "" {
		return "Someone"
	}
	return u.FullName
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID string) (*model.Post, bool, error) {
	s.locks.Lock(postID)
	defer s.locks.Unlock(postID)

	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, false, err
	}
	liked := p.ToggleLike(userID)
	if err := s.posts.Save(ctx, p); err != nil {
		return nil, false, fmt.Errorf("save post: %w", err)
	}
	s.metrics.LikeToggled(liked)

	if liked && p.AuthorID != userID {
		name := s.actorName(ctx, userID)
		if _, err := s.notifications.Push(ctx, PushInput{
			OwnerID:  p.AuthorID,
			Type:     model.NotificationLike,
			FromUser: name,
			Message:  name + " liked your post",
			PostID:   p.ID,
		}); err != nil {
			logger.Warn("like notification failed", zap.String("post", p.ID), zap.Error(err))
		}
	}
	return p, liked, nil
}

func (s *postService) AddComment(ctx context.Context, postID, authorID, content string) (*model.Comment, error) {
	if s.sanitizer.Blank(content) {
		return nil, invalid("Comment content is required")
	}

	s.locks.Lock(postID)
	defer s.locks.Unlock(postID)

	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.Get(ctx, authorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}

	c := &model.Comment{
		ID:                   newID(),
		PostID:               postID,
		AuthorID:             authorID,
		AuthorName:           author.FullName,
		AuthorProfilePicture: author.ProfilePicture,
		Content:              content,
		CreatedAt:            s.clock.Now().UTC(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	p.Comments++
	if err := s.posts.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}
	s.metrics.CommentAdded()

	if p.AuthorID != authorID {
		if _, err := s.notifications.Push(ctx, PushInput{
			OwnerID:  p.AuthorID,
			Type:     model.NotificationComment,
			FromUser: author.FullName,
			Message:  fmt.Sprintf("%s commented: %s", author.FullName, truncate(content, commentPreviewLen)),
			PostID:   p.ID,
		}); err != nil {
			logger.Warn("comment notification failed", zap.String("post", p.ID), zap.Error(err))
		}
	}
	return c, nil
}

func (s *postService) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, notFound("Post not found")
	}
	list, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	sortByTime(list,
		func(c *model.Comment) time.Time { return c.CreatedAt },
		func(c *model.Comment) string { return c.ID },
		false)
	return list, nil
}
