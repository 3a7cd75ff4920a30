package model

import "gorm.io/datatypes"

// Listing has no unique index on url: uniqueness is a service pre-check.
type Listing struct {
	ID           string         `gorm:"column:id;type:text;primaryKey"`
	URL          string         `gorm:"column:url;type:text;not null;index"`
	Title        string         `gorm:"column:title;type:text;not null"`
	Company      string         `gorm:"column:company;type:text;not null"`
	Domain       string         `gorm:"column:domain;type:text;not null;default:''"`
	Location     *string        `gorm:"column:location;type:text"`
	Description  string         `gorm:"column:description;type:text;not null;default:''"`
	Notes        *string        `gorm:"column:notes;type:text"`
	Insights     datatypes.JSON `gorm:"column:insights"`
	PostedDate   *string        `gorm:"column:posted_date;type:text"`
	Skills       datatypes.JSON `gorm:"column:skills;not null"`
	Requirements datatypes.JSON `gorm:"column:requirements;not null"`
}

func (Listing) TableName() string {
	return "listings"
}
