package model

import "time"

// Entry is one row of the key-value table backing the durable store.
type Entry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name independent of gorm pluralisation.
func (Entry) TableName() string {
	return "kv_entries"
}
