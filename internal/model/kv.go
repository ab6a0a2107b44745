package model

import "time"

// KVEntry SQL 后端的 KV 行
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;type:varchar(512)"`
	Value     []byte    `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (KVEntry) TableName() string { return "kv_entries" }
