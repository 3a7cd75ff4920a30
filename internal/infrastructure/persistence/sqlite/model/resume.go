package model

import "gorm.io/datatypes"

type Resume struct {
	ID         string         `gorm:"column:id;type:text;primaryKey"`
	TemplateID string         `gorm:"column:template_id;type:text;not null"`
	Sections   datatypes.JSON `gorm:"column:sections;not null"`
}

func (Resume) TableName() string {
	return "resumes"
}
