package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/d60-Lab/college-connect/internal/model"
)

func forEachBenchStore(b *testing.B, fn func(b *testing.B, s Store)) {
	b.Run("redis", func(b *testing.B) { fn(b, newMiniRedisStore(b, "bench")) })
	b.Run("sql", func(b *testing.B) { fn(b, newSQLiteStore(b, "bench")) })
}

func seedPosts(b *testing.B, repo PostRepository, n int) []string {
	b.Helper()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%05d", i)
		p := &model.Post{ID: ids[i], AuthorID: fmt.Sprintf("u%03d", i%100), Content: "hello", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := repo.Save(ctx, p); err != nil {
			b.Fatalf("seed post: %v", err)
		}
	}
	return ids
}

// 点赞路径：读帖子 + 整体回写
func BenchmarkPostReadModifyWrite(b *testing.B) {
	forEachBenchStore(b, func(b *testing.B, s Store) {
		repo := NewPostRepository(s)
		ids := seedPosts(b, repo, 1000)
		ctx := context.Background()
		rng := rand.New(rand.NewSource(1))

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			p, err := repo.Get(ctx, ids[rng.Intn(len(ids))])
			if err != nil {
				b.Fatal(err)
			}
			p.Likes++
			if err := repo.Save(ctx, p); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// feed 路径：全量前缀扫描 + 排序
func BenchmarkPostList(b *testing.B) {
	forEachBenchStore(b, func(b *testing.B, s Store) {
		repo := NewPostRepository(s)
		seedPosts(b, repo, 2000)
		ctx := context.Background()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			posts, err := repo.List(ctx)
			if err != nil {
				b.Fatal(err)
			}
			if len(posts) != 2000 {
				b.Fatalf("got %d posts", len(posts))
			}
		}
	})
}

func BenchmarkDisplayIDClaim(b *testing.B) {
	forEachBenchStore(b, func(b *testing.B, s Store) {
		repo := NewUserRepository(s)
		ctx := context.Background()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			// 一半命中已占用的 ID
			id := fmt.Sprintf("SID%d", i/2)
			if _, err := repo.ClaimDisplayID(ctx, id, fmt.Sprintf("u%d", i)); err != nil {
				b.Fatal(err)
			}
		}
	})
}
