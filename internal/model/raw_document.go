package model

import (
	"time"

	"gorm.io/datatypes"
)

// RawDocument archives the unprocessed source metadata for a video,
// keyed uniquely by the external video id. Optional secondary store
// next to the normalized tables.
type RawDocument struct {
	ID        uint           `gorm:"primaryKey"`
	VideoID   string         `gorm:"uniqueIndex;size:64;not null"`
	Document  datatypes.JSON `gorm:"not null"`
	FetchedAt time.Time
}

// TableName returns the table name for RawDocument
func (RawDocument) TableName() string {
	return "raw_documents"
}
