// feedbench seeds verified students and posts through the service layer,
// then measures feed reads, like toggles and comments against the configured store.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/d60-Lab/college-connect/config"
	"github.com/d60-Lab/college-connect/internal/app"
	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/service"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func report(name string, ds []time.Duration) {
	fmt.Printf("%-14s samples=%d avg=%v p95=%v p99=%v\n", name, len(ds), avg(ds), pct(ds, 0.95), pct(ds, 0.99))
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())

	// MEMORY=1 跑在进程内 redis 上，不依赖外部服务
	if os.Getenv("MEMORY") != "" {
		mr := miniredis.NewMiniRedis()
		if err := mr.Start(); err != nil {
			panic(err)
		}
		defer mr.Close()
		cfg.Store.Driver = "redis"
		cfg.Redis.Addr = mr.Addr()
		cfg.Redis.Password = ""
	}
	// 每次运行使用独立命名空间，避免和已有数据混在一起
	cfg.Store.Namespace = "bench-" + uuid.NewString()[:8]

	store := must(app.OpenStore(ctx, cfg))
	a := must(app.New(ctx, cfg, store, clock.WallClock))
	defer a.Close()

	USERS := envInt("USERS", 200)
	POSTS := envInt("POSTS", 500)
	READS := envInt("READS", 200)
	LIKERS := envInt("LIKERS", 16)
	colleges := []string{"North State", "South Tech", "East Poly"}

	// seed verified students
	users := make([]*model.UserProfile, USERS)
	for i := range users {
		id := uuid.NewString()
		p := must(a.Services.Profiles.Create(ctx, id, fmt.Sprintf("s%d@bench.edu", i), fmt.Sprintf("Student %d", i)))
		p.CollegeName = colleges[i%len(colleges)]
		p.Verified = true
		p.VerificationStatus = model.VerificationApproved
		if err := a.Repos.Users.Save(ctx, p); err != nil {
			panic(err)
		}
		users[i] = p
	}

	createDurations := make([]time.Duration, 0, POSTS)
	posts := make([]*model.Post, 0, POSTS)
	for i := 0; i < POSTS; i++ {
		author := users[i%USERS]
		st := time.Now()
		p, err := a.Services.Posts.CreatePost(ctx, author.ID, service.CreatePostInput{
			Content:                fmt.Sprintf("post %d from %s", i, author.FullName),
			IsCollegeCommunityOnly: i%4 == 0,
		})
		if err != nil {
			panic(err)
		}
		createDurations = append(createDurations, time.Since(st))
		posts = append(posts, p)
	}

	feedDurations := make([]time.Duration, 0, READS)
	communityDurations := make([]time.Duration, 0, READS)
	for i := 0; i < READS; i++ {
		viewer := users[i%USERS]
		st := time.Now()
		_ = must(a.Services.Posts.ListFeed(ctx, viewer.ID, false))
		feedDurations = append(feedDurations, time.Since(st))

		st = time.Now()
		_ = must(a.Services.Posts.ListFeed(ctx, viewer.ID, true))
		communityDurations = append(communityDurations, time.Since(st))
	}

	commentDurations := make([]time.Duration, 0, READS)
	for i := 0; i < READS; i++ {
		post := posts[i%len(posts)]
		st := time.Now()
		_ = must(a.Services.Posts.AddComment(ctx, post.ID, users[(i+1)%USERS].ID, fmt.Sprintf("comment %d", i)))
		commentDurations = append(commentDurations, time.Since(st))
	}

	// 多个用户并发点赞同一帖子，最终计数必须与点赞人数一致
	hot := posts[0]
	var (
		mu            sync.Mutex
		likeDurations []time.Duration
		wg            sync.WaitGroup
	)
	for i := 0; i < LIKERS && i < USERS; i++ {
		wg.Add(1)
		go func(u *model.UserProfile) {
			defer wg.Done()
			st := time.Now()
			if _, _, err := a.Services.Posts.ToggleLike(ctx, hot.ID, u.ID); err != nil {
				panic(err)
			}
			d := time.Since(st)
			mu.Lock()
			likeDurations = append(likeDurations, d)
			mu.Unlock()
		}(users[i])
	}
	wg.Wait()
	final := must(a.Repos.Posts.Get(ctx, hot.ID))

	fmt.Printf("driver=%s USERS=%d POSTS=%d READS=%d LIKERS=%d\n", cfg.Store.Driver, USERS, POSTS, READS, LIKERS)
	report("create post", createDurations)
	report("feed", feedDurations)
	report("community", communityDurations)
	report("comment", commentDurations)
	report("like (hot)", likeDurations)
	fmt.Printf("hot post likes=%d likedBy=%d\n", final.Likes, len(final.LikedBy))
}
