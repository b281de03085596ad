package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/yt-harvester-go/internal/model"
	"github.com/user/yt-harvester-go/internal/normalize"
)

// ErrStoreUnavailable classifies lost database connections. It is
// fatal to the current run; reconnecting is an external concern.
var ErrStoreUnavailable = errors.New("store unavailable")

// IntegrityError is a constraint failure other than a duplicate
// natural key. It carries the offending row so the failure can be
// diagnosed from the events log.
type IntegrityError struct {
	Table string
	Row   any
	Err   error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on %s: %v", e.Table, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Averages holds per-video averages; nil means no video rows exist.
type Averages struct {
	Duration *float64
	Views    *float64
	Likes    *float64
}

// PlaylistDuration is one playlist's aggregate video duration.
type PlaylistDuration struct {
	Title         *string
	TotalDuration int64
}

// TopVideo is the video leading one metric.
type TopVideo struct {
	Title  *string
	Metric *int64
}

// TopChannel is the channel with the most associated videos.
type TopChannel struct {
	Name       *string
	VideoCount int64
}

// Store defines the interface for data persistence operations.
// Every upsert is idempotent: re-insertion of an existing natural key
// is a successful no-op, never an error and never a duplicate row.
type Store interface {
	// Entity upserts
	UpsertChannel(ctx context.Context, channel *model.Channel) error
	UpsertPlaylist(ctx context.Context, playlist *model.Playlist) error
	UpsertVideo(ctx context.Context, video *model.Video) error
	// InsertTags persists the tag list for a video; a (text, video)
	// pair already present is a no-op.
	InsertTags(ctx context.Context, videoID string, tags []string) error
	UpsertCategory(ctx context.Context, name string) (uint, error)
	LinkVideoCategory(ctx context.Context, videoID string, categoryID uint) error

	// ProcessRecord persists one normalized record in the fixed order
	// Channel, Playlist, Video, Tags, Categories. Each step is durably
	// applied before the next; a mid-record failure leaves the steps
	// already applied in place.
	ProcessRecord(ctx context.Context, rec *normalize.Record) error

	// SaveRawDocument archives the raw metadata document for a video
	SaveRawDocument(ctx context.Context, videoID string, doc []byte) error

	// Aggregate queries
	CountVideos(ctx context.Context) (int64, error)
	CountChannels(ctx context.Context) (int64, error)
	CountPlaylists(ctx context.Context) (int64, error)
	VideoAverages(ctx context.Context) (*Averages, error)
	PlaylistDurations(ctx context.Context) ([]PlaylistDuration, error)
	TopVideoByViews(ctx context.Context) (*TopVideo, error)
	TopVideoByLikes(ctx context.Context) (*TopVideo, error)
	TopVideoByDuration(ctx context.Context) (*TopVideo, error)
	TopChannelByVideos(ctx context.Context) (*TopChannel, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
