package model

// Playlist represents a YouTube playlist keyed by its external playlist id
type Playlist struct {
	ID        string  `gorm:"primaryKey;size:64"`
	Title     *string `gorm:"size:500"`
	URL       *string `gorm:"size:500"`
	ChannelID *string `gorm:"index;size:64"`
}

// TableName returns the table name for Playlist
func (Playlist) TableName() string {
	return "playlists"
}
