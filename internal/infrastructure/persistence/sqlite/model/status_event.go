package model

import "gorm.io/datatypes"

type StatusEvent struct {
	ID            string         `gorm:"column:id;type:text;primaryKey"`
	ApplicationID string         `gorm:"column:application_id;type:text;not null;index"`
	Status        string         `gorm:"column:status;type:text;not null"`
	Date          string         `gorm:"column:date;type:text;not null"`
	Notes         *string        `gorm:"column:notes;type:text"`
	Payload       datatypes.JSON `gorm:"column:payload;not null"`
}

func (StatusEvent) TableName() string {
	return "status_events"
}
