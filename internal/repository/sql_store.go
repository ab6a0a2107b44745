package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/college-connect/internal/model"
)

// SQLStore gorm 实现：一张 kv_entries 表，文本主键
type SQLStore struct {
	db *gorm.DB
	ns string
}

func NewSQLStore(db *gorm.DB, namespace string) *SQLStore {
	return &SQLStore{db: db, ns: namespace}
}

// InitSchema 初始化表结构
func (s *SQLStore) InitSchema() error {
	if err := s.db.AutoMigrate(&model.KVEntry{}); err != nil {
		return fmt.Errorf("failed to migrate kv_entries table: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e model.KVEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", namespaced(s.ns, key)).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	e := &model.KVEntry{Key: namespaced(s.ns, key), Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(e).Error
}

func (s *SQLStore) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	e := &model.KVEntry{Key: namespaced(s.ns, key), Value: value, UpdatedAt: time.Now()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *SQLStore) ScanPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	full := namespaced(s.ns, prefix)
	var rows []model.KVEntry
	err := s.db.WithContext(ctx).
		Where("entry_key LIKE ? ESCAPE '\\'", likeEscape(full)+"%").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(rows))
	for _, r := range rows {
		// sqlite 的 LIKE 对 ASCII 不区分大小写，这里再精确过滤一次
		if strings.HasPrefix(r.Key, full) {
			out = append(out, r.Value)
		}
	}
	return out, nil
}

func (s *SQLStore) DeleteIfEquals(ctx context.Context, key string, value []byte) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("entry_key = ? AND entry_value = ?", namespaced(s.ns, key), value).
		Delete(&model.KVEntry{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
