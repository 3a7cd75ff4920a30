package model

type Application struct {
	ID            string  `gorm:"column:id;type:text;primaryKey"`
	ListingID     string  `gorm:"column:listing_id;type:text;not null;index"`
	ResumeID      *string `gorm:"column:resume_id;type:text;index"`
	CurrentStatus string  `gorm:"column:current_status;type:text;not null;default:'saved'"`
	LastStatusAt  string  `gorm:"column:last_status_at;type:text;not null"`
}

func (Application) TableName() string {
	return "applications"
}
