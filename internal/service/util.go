package service

import (
	"html"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// newID 生成按时间有序的 ID
func newID() string { return uuid.Must(uuid.NewV7()).String() }

// textSanitizer 只用于判空：纯空白或只有标签的输入视为空，存储的内容保持原样
type textSanitizer struct{ policy *bluemonday.Policy }

func newTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) Blank(in string) bool {
	if strings.TrimSpace(in) == "" {
		return true
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in))) == ""
}

// sortByTime 按时间排序，时间相同按 ID 兜底
func sortByTime[T any](items []T, at func(T) time.Time, id func(T) string, newestFirst bool) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := at(items[i]), at(items[j])
		if !ti.Equal(tj) {
			if newestFirst {
				return ti.After(tj)
			}
			return ti.Before(tj)
		}
		if newestFirst {
			return id(items[i]) > id(items[j])
		}
		return id(items[i]) < id(items[j])
	})
}

// truncate 按字符截断，超出部分以 "..." 结尾
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
