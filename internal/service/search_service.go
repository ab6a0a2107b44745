package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/repository"
)

// SearchService 全量扫描的用户搜索，无排序无分页
type SearchService interface {
	Search(ctx context.Context, query, excludeUserID string) ([]*model.UserProfile, error)
}

type searchService struct {
	users repository.UserRepository
}

func NewSearchService(users repository.UserRepository) SearchService {
	return &searchService{users: users}
}

func (s *searchService) Search(ctx context.Context, query, excludeUserID string) ([]*model.UserProfile, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, invalid("Search query is required")
	}
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*model.UserProfile, 0)
	for _, u := range all {
		if u.ID == excludeUserID {
			continue
		}
		if strings.Contains(strings.ToLower(u.UserID), q) || strings.Contains(strings.ToLower(u.FullName), q) {
			out = append(out, u)
		}
	}
	// 扫描顺序不稳定，按 ID 固定输出
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
