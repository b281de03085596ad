package model

// Tag is one tag occurrence on one video. The (text, video) pair is
// the natural key: re-observing a tag on the same video is a no-op,
// while the same text on different videos stays one row per video.
type Tag struct {
	ID      uint   `gorm:"primaryKey"`
	Text    string `gorm:"uniqueIndex:idx_tag_video;size:500;not null"`
	VideoID string `gorm:"uniqueIndex:idx_tag_video;size:64;not null"`
}

// TableName returns the table name for Tag
func (Tag) TableName() string {
	return "tags"
}
