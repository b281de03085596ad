// Package normalize maps raw source records onto the fixed entity
// shapes used by the store. Absent or falsy optional fields become
// nil, never a fabricated default: a missing view count stays unknown
// rather than turning into zero.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/yt-harvester-go/internal/model"
	"github.com/user/yt-harvester-go/internal/source"
)

// Record bundles the normalized entities extracted from one raw
// source record, ready for persistence in the fixed table order.
type Record struct {
	Channel    *model.Channel  // nil when the source reported no channel id
	Playlist   *model.Playlist // nil when no playlist context is known
	Video      *model.Video
	Tags       []string
	Categories []string
	Raw        source.RawRecord
}

// Build normalizes one raw record. The video id is the only required
// field; everything else degrades to nil when absent.
func Build(rec source.RawRecord) (*Record, error) {
	video := Video(rec)
	if video == nil {
		return nil, fmt.Errorf("record has no video id")
	}
	return &Record{
		Channel:    Channel(rec),
		Playlist:   Playlist(rec),
		Video:      video,
		Tags:       Tags(rec),
		Categories: Categories(rec),
		Raw:        rec,
	}, nil
}

// Channel extracts the channel entity, or nil without a channel id
func Channel(rec source.RawRecord) *model.Channel {
	id := stringField(rec, "channel_id")
	if id == nil {
		return nil
	}
	return &model.Channel{
		ID:       *id,
		Name:     stringField(rec, "channel"),
		URL:      stringField(rec, "channel_url"),
		Uploader: stringField(rec, "uploader"),
	}
}

// Playlist extracts the playlist entity, or nil without a playlist id
func Playlist(rec source.RawRecord) *model.Playlist {
	id := stringField(rec, "playlist_id")
	if id == nil {
		return nil
	}
	return &model.Playlist{
		ID:        *id,
		Title:     stringField(rec, "playlist_title"),
		URL:       stringField(rec, "playlist_url"),
		ChannelID: stringField(rec, "channel_id"),
	}
}

// Video extracts the video entity, or nil without a video id
func Video(rec source.RawRecord) *model.Video {
	id := stringField(rec, "id")
	if id == nil {
		return nil
	}
	return &model.Video{
		ID:          *id,
		Title:       stringField(rec, "title"),
		URL:         stringField(rec, "url"),
		PlaylistID:  stringField(rec, "playlist_id"),
		Duration:    intField(rec, "duration"),
		Views:       intField(rec, "view_count"),
		Likes:       intField(rec, "like_count"),
		UploadDate:  dateField(rec, "upload_date"),
		ChannelID:   stringField(rec, "channel_id"),
		Description: stringField(rec, "description"),
		Embeddable:  boolField(rec, "playable_in_embed"),
	}
}

// Tags fans the source tag list out into independent tag strings.
// Non-string and blank entries are dropped silently.
func Tags(rec source.RawRecord) []string {
	return stringList(rec, "tags")
}

// Categories fans the source category list out into trimmed names.
// Non-string and blank entries are dropped silently.
func Categories(rec source.RawRecord) []string {
	return stringList(rec, "categories")
}

func stringList(rec source.RawRecord, key string) []string {
	items, ok := rec[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func stringField(rec source.RawRecord, key string) *string {
	s, ok := rec[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// intField accepts the numeric encodings a decoded record can carry:
// int64 from the parser, float64 from encoding/json.
func intField(rec source.RawRecord, key string) *int64 {
	switch v := rec[key].(type) {
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	case float64:
		n := int64(v)
		return &n
	default:
		return nil
	}
}

func boolField(rec source.RawRecord, key string) *bool {
	b, ok := rec[key].(bool)
	if !ok {
		return nil
	}
	return &b
}

// dateField parses the two upload-date encodings the source uses:
// compact YYYYMMDD and ISO YYYY-MM-DD. Malformed dates become nil.
func dateField(rec source.RawRecord, key string) *time.Time {
	s, ok := rec[key].(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range []string{"20060102", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}
