package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/pkg/logger"
)

// ErrNotFound key 不存在
var ErrNotFound = errors.New("record not found")

// Store 通用 KV 存储：按 key 读写，按前缀扫描（结果无序）
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetIfAbsent 仅在 key 不存在时写入，返回是否写入成功
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
	ScanPrefix(ctx context.Context, prefix string) ([][]byte, error)
	// DeleteIfEquals 仅当当前值等于 value 时删除，返回是否删除
	DeleteIfEquals(ctx context.Context, key string, value []byte) (bool, error)
	Close() error
}

func namespaced(ns, key string) string {
	if ns == "" {
		return key
	}
	return ns + ":" + key
}

func getJSON[T any](ctx context.Context, s Store, key string) (*T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func putJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

func createJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetIfAbsent(ctx, key, raw)
}

// scanJSON 解码前缀下所有值，无法解码的条目跳过
func scanJSON[T any](ctx context.Context, s Store, prefix string) ([]*T, error) {
	raws, err := s.ScanPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn("skip undecodable record", zap.String("prefix", prefix), zap.Error(err))
			continue
		}
		out = append(out, &v)
	}
	return out, nil
}
