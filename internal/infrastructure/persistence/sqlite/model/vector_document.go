package model

import "gorm.io/datatypes"

// VectorDocument is one embedded text of a collection.
type VectorDocument struct {
	ID         uint64                                `gorm:"column:id;primaryKey;autoIncrement"`
	Collection string                                `gorm:"column:collection;type:text;not null;index"`
	Model      string                                `gorm:"column:model;type:text;not null"`
	Document   string                                `gorm:"column:document;type:text;not null"`
	Metadata   datatypes.JSONType[map[string]string] `gorm:"column:metadata;not null"`
	Embedding  datatypes.JSONSlice[float32]          `gorm:"column:embedding;not null"`
	CreatedAt  string                                `gorm:"column:created_at;type:text;not null"`
}

func (VectorDocument) TableName() string {
	return "vector_documents"
}
