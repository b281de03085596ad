package model

// Channel represents a YouTube channel keyed by its external channel id
type Channel struct {
	ID       string  `gorm:"primaryKey;size:64"`
	Name     *string `gorm:"size:255"`
	URL      *string `gorm:"size:500"`
	Uploader *string `gorm:"size:255"`
}

// TableName returns the table name for Channel
func (Channel) TableName() string {
	return "channels"
}
