package model

import "time"

// Meta records facts about the database itself, such as the schema version.
type Meta struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (Meta) TableName() string {
	return "meta"
}

const (
	MetaSchemaVersion = "schema_version"
	SchemaVersion     = "1"
)

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Listing{},
		&Application{},
		&StatusEvent{},
		&Resume{},
		&VectorDocument{},
		&CacheEntry{},
		&Meta{},
	}
}
