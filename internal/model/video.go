package model

import (
	"time"
)

// Video represents a single video with its metadata.
// Optional fields are pointers: a nil value means the source did not
// report the field, which is distinct from a reported zero.
type Video struct {
	ID          string     `gorm:"primaryKey;size:64"`
	Title       *string    `gorm:"size:500"`
	URL         *string    `gorm:"size:500"`
	PlaylistID  *string    `gorm:"index;size:64"`
	Duration    *int64     // seconds
	Views       *int64
	Likes       *int64
	UploadDate  *time.Time `gorm:"type:date"`
	ChannelID   *string    `gorm:"index;size:64"`
	Description *string    `gorm:"type:text"`
	Embeddable  *bool      // nil when the source does not say
}

// TableName returns the table name for Video
func (Video) TableName() string {
	return "videos"
}
