package model

// Category is a dictionary row created lazily on first observation of
// a category name. Videos reference it through VideoCategory.
type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;size:191;not null"`
}

// TableName returns the table name for Category
func (Category) TableName() string {
	return "categories"
}

// VideoCategory links a video to a category. The composite primary key
// makes duplicate link attempts a no-op at the store level.
type VideoCategory struct {
	VideoID    string `gorm:"primaryKey;size:64"`
	CategoryID uint   `gorm:"primaryKey"`
}

// TableName returns the table name for VideoCategory
func (VideoCategory) TableName() string {
	return "video_categories"
}
