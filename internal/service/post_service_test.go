package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/college-connect/internal/model"
)

func TestPostService_CreateRequiresVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "u1", "Unverified", "")

	_, err := env.svc.Posts.CreatePost(ctx, "u1", CreatePostInput{Content: "hello"})
	assert.ErrorIs(t, err, ErrForbidden)

	posts, err := env.repos.Posts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts, "forbidden create persists nothing")
}

func TestPostService_CreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.newUser(t, "u1", "Jane", "College X")

	_, err := env.svc.Posts.CreatePost(ctx, "u1", CreatePostInput{Content: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.svc.Posts.CreatePost(ctx, "u1", CreatePostInput{Content: "<script>x</script>"})
	assert.ErrorIs(t, err, ErrValidation, "markup-only content counts as empty")

	p, err := env.svc.Posts.CreatePost(ctx, "u1", CreatePostInput{
		Content:                "<b>Hello</b> campus & friends",
		IsCollegeCommunityOnly: true,
		Image:                  blob("pic.png", "img"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<b>Hello</b> campus & friends", p.Content, "content is stored verbatim")
	assert.Equal(t, "Jane", p.AuthorName)
	assert.Equal(t, "College X", p.AuthorCollege)
	assert.Contains(t, p.Image, "/media/post-images/u1_")
	assert.Zero(t, p.Likes)
	assert.Empty(t, p.LikedBy)

	// 作者资料变更不影响已发布帖子
	author.FullName = "Jane Renamed"
	require.NoError(t, env.repos.Users.Save(ctx, author))
	stored, err := env.repos.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.AuthorName)
}

func TestPostService_ListFeedCommunityFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "x1", "X Author", "College X")
	env.newUser(t, "y1", "Y Author", "College Y")
	env.newUser(t, "viewer", "Viewer", "College X")

	first, err := env.svc.Posts.CreatePost(ctx, "x1", CreatePostInput{Content: "x only", IsCollegeCommunityOnly: true})
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	second, err := env.svc.Posts.CreatePost(ctx, "y1", CreatePostInput{Content: "public"})
	require.NoError(t, err)

	community, err := env.svc.Posts.ListFeed(ctx, "viewer", true)
	require.NoError(t, err)
	require.Len(t, community, 1)
	assert.Equal(t, first.ID, community[0].ID)

	all, err := env.svc.Posts.ListFeed(ctx, "viewer", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	byAuthor, err := env.svc.Posts.ListByAuthor(ctx, "y1")
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, second.ID, byAuthor[0].ID)
}

func TestPostService_CommunityFeedViewerWithoutCollege(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "a", "A", "")
	env.newUser(t, "b", "B", "College X")
	_, err := env.svc.Posts.CreatePost(ctx, "b", CreatePostInput{Content: "hi", IsCollegeCommunityOnly: true})
	require.NoError(t, err)

	posts, err := env.svc.Posts.ListFeed(ctx, "a", true)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostService_ToggleLike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "author", "Author", "College X")
	env.newUser(t, "fan", "Fan", "")
	p, err := env.svc.Posts.CreatePost(ctx, "author", CreatePostInput{Content: "like me"})
	require.NoError(t, err)

	got, liked, err := env.svc.Posts.ToggleLike(ctx, p.ID, "fan")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, got.Likes)

	got, liked, err = env.svc.Posts.ToggleLike(ctx, p.ID, "fan")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, got.Likes)

	_, _, err = env.svc.Posts.ToggleLike(ctx, p.ID, "author")
	require.NoError(t, err)

	notes, err := env.svc.Notifications.ListAll(ctx, "author")
	require.NoError(t, err)
	require.Len(t, notes, 1, "one like, no unlike, no self-like notification")
	assert.Equal(t, model.NotificationLike, notes[0].Type)
	assert.Equal(t, "Fan", notes[0].FromUser)
	assert.Equal(t, p.ID, notes[0].PostID)

	_, _, err = env.svc.Posts.ToggleLike(ctx, "missing", "fan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_LikeCountMatchesLikers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "author", "Author", "College X")
	p, err := env.svc.Posts.CreatePost(ctx, "author", CreatePostInput{Content: "count"})
	require.NoError(t, err)

	const users = 12
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := env.svc.Posts.ToggleLike(ctx, p.ID, fmt.Sprintf("user-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	for i := 0; i < users; i += 3 {
		_, _, err := env.svc.Posts.ToggleLike(ctx, p.ID, fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
	}

	stored, err := env.repos.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, len(stored.LikedBy), stored.Likes)
	assert.Equal(t, users-4, stored.Likes)
}

func TestPostService_AddComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "author", "Author", "College X")
	env.newUser(t, "c", "Commenter", "")
	p, err := env.svc.Posts.CreatePost(ctx, "author", CreatePostInput{Content: "discuss"})
	require.NoError(t, err)

	_, err = env.svc.Posts.AddComment(ctx, p.ID, "c", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.svc.Posts.AddComment(ctx, "missing", "c", "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	generic, err := env.svc.Posts.AddComment(ctx, p.ID, "author", "use Map<K, V> here")
	require.NoError(t, err)
	assert.Equal(t, "use Map<K, V> here", generic.Content)
	env.clock.Advance(time.Second)

	long := strings.Repeat("a", 60)
	first, err := env.svc.Posts.AddComment(ctx, p.ID, "c", long)
	require.NoError(t, err)
	assert.Equal(t, "Commenter", first.AuthorName)
	env.clock.Advance(time.Second)
	_, err = env.svc.Posts.AddComment(ctx, p.ID, "author", "thanks")
	require.NoError(t, err)

	stored, err := env.repos.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Comments)

	comments, err := env.svc.Posts.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, generic.ID, comments[0].ID, "oldest first")
	assert.Equal(t, first.ID, comments[1].ID)

	notes, err := env.svc.Notifications.ListAll(ctx, "author")
	require.NoError(t, err)
	require.Len(t, notes, 1, "self comment does not notify")
	assert.Equal(t, model.NotificationComment, notes[0].Type)
	assert.Equal(t, "Commenter commented: "+strings.Repeat("a", 50)+"...", notes[0].Message)
}
