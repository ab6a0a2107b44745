package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

type redisStore struct {
	client *redis.Client
	ns     string
}

// NewRedisStore Redis 后端；namespace 作为所有 key 的前缀
func NewRedisStore(client *redis.Client, namespace string) Store {
	return &redisStore{client: client, ns: namespace}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, namespaced(s.ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, namespaced(s.ns, key), value, 0).Err()
}

func (s *redisStore) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	return s.client.SetNX(ctx, namespaced(s.ns, key), value, 0).Result()
}

var deleteIfEquals = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *redisStore) DeleteIfEquals(ctx context.Context, key string, value []byte) (bool, error) {
	n, err := deleteIfEquals.Run(ctx, s.client, []string{namespaced(s.ns, key)}, value).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *redisStore) ScanPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	pattern := globEscape(namespaced(s.ns, prefix)) + "*"

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		end := start + scanBatch
		if end > len(keys) {
			end = len(keys)
		}
		vals, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			// key 可能在 SCAN 与 MGET 之间被删除
			if str, ok := v.(string); ok {
				out = append(out, []byte(str))
			}
		}
	}
	return out, nil
}

func (s *redisStore) Close() error { return s.client.Close() }

// globEscape 转义 SCAN MATCH 的通配字符
func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
