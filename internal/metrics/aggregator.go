package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/yt-harvester-go/internal/store"
)

// Aggregator derives the metrics snapshot from the store's current
// state and publishes it atomically to the snapshot file.
type Aggregator struct {
	store store.Store
	path  string
}

// NewAggregator creates a new aggregator writing to the given path
func NewAggregator(s store.Store, path string) *Aggregator {
	return &Aggregator{store: s, path: path}
}

// Run collects a fresh snapshot and publishes it
func (a *Aggregator) Run(ctx context.Context) error {
	start := time.Now()

	snapshot, err := a.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	if err := a.write(snapshot); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	log.Info().
		Int64("videos", snapshot.VideoCount).
		Dur("duration", time.Since(start)).
		Str("path", a.path).
		Msg("Metrics snapshot written")
	return nil
}

// Collect assembles a snapshot from the store
func (a *Aggregator) Collect(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{}
	var err error

	if snapshot.VideoCount, err = a.store.CountVideos(ctx); err != nil {
		return nil, err
	}
	if snapshot.ChannelCount, err = a.store.CountChannels(ctx); err != nil {
		return nil, err
	}
	if snapshot.PlaylistCount, err = a.store.CountPlaylists(ctx); err != nil {
		return nil, err
	}

	averages, err := a.store.VideoAverages(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.AvgVideoDuration = averages.Duration
	snapshot.AvgVideoViews = averages.Views
	snapshot.AvgVideoLikes = averages.Likes

	durations, err := a.store.PlaylistDurations(ctx)
	if err != nil {
		return nil, err
	}
	if len(durations) > 0 {
		snapshot.LongestPlaylist = PlaylistStat{
			Title:         durations[0].Title,
			TotalDuration: durations[0].TotalDuration,
		}
		var total int64
		for _, d := range durations {
			total += d.TotalDuration
		}
		snapshot.AvgPlaylistDuration = float64(total) / float64(len(durations))
	}

	if snapshot.TopVideoByViews, err = a.topVideo(a.store.TopVideoByViews, ctx); err != nil {
		return nil, err
	}
	if snapshot.TopVideoByLikes, err = a.topVideo(a.store.TopVideoByLikes, ctx); err != nil {
		return nil, err
	}
	if snapshot.TopVideoByDuration, err = a.topVideo(a.store.TopVideoByDuration, ctx); err != nil {
		return nil, err
	}

	topChannel, err := a.store.TopChannelByVideos(ctx)
	if err != nil {
		return nil, err
	}
	if topChannel != nil {
		snapshot.TopChannelByVideos = &ChannelStat{
			Name:       topChannel.Name,
			VideoCount: topChannel.VideoCount,
		}
	}

	return snapshot, nil
}

func (a *Aggregator) topVideo(query func(context.Context) (*store.TopVideo, error), ctx context.Context) (*VideoStat, error) {
	top, err := query(ctx)
	if err != nil {
		return nil, err
	}
	if top == nil {
		return nil, nil
	}
	return &VideoStat{Title: top.Title, Metric: top.Metric}, nil
}

// write publishes the snapshot atomically: marshal to a temp file in
// the target directory, then rename over the destination, so a
// concurrent reader never sees a partial document.
func (a *Aggregator) write(snapshot *Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(a.path)
	tmp, err := os.CreateTemp(dir, ".metrics-*.json")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), a.path)
}
