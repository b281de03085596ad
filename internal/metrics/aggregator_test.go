package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/yt-harvester-go/internal/model"
	"github.com/user/yt-harvester-go/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) store.Store {
	t.Helper()
	dir := t.TempDir()

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	events, err := store.NewEventLog(filepath.Join(dir, "events.log"))
	if err != nil {
		t.Fatalf("open event log: %v", err)
	}
	st, err := store.NewFromDB(db, events)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func seedVideos(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()

	if err := st.UpsertChannel(ctx, &model.Channel{ID: "UC1", Name: strPtr("Chan")}); err != nil {
		t.Fatal(err)
	}
	if err := st.UpsertPlaylist(ctx, &model.Playlist{ID: "PL1", Title: strPtr("Mixes"), ChannelID: strPtr("UC1")}); err != nil {
		t.Fatal(err)
	}
	videos := []*model.Video{
		{ID: "V1", Title: strPtr("V1"), Views: intPtr(100), Likes: intPtr(5), Duration: intPtr(60), PlaylistID: strPtr("PL1"), ChannelID: strPtr("UC1")},
		{ID: "V2", Title: strPtr("V2"), Views: intPtr(50), Likes: intPtr(20), Duration: intPtr(10), PlaylistID: strPtr("PL1"), ChannelID: strPtr("UC1")},
	}
	for _, v := range videos {
		if err := st.UpsertVideo(ctx, v); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollect(t *testing.T) {
	st := setupStore(t)
	seedVideos(t, st)

	agg := NewAggregator(st, filepath.Join(t.TempDir(), "metrics_log.json"))
	snapshot, err := agg.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if snapshot.VideoCount != 2 {
		t.Errorf("VideoCount = %d, want 2", snapshot.VideoCount)
	}
	if snapshot.ChannelCount != 1 {
		t.Errorf("ChannelCount = %d, want 1", snapshot.ChannelCount)
	}
	if snapshot.PlaylistCount != 1 {
		t.Errorf("PlaylistCount = %d, want 1", snapshot.PlaylistCount)
	}

	if snapshot.AvgVideoViews == nil || *snapshot.AvgVideoViews != 75 {
		t.Errorf("AvgVideoViews = %v, want 75", snapshot.AvgVideoViews)
	}
	if snapshot.AvgVideoLikes == nil || *snapshot.AvgVideoLikes != 12.5 {
		t.Errorf("AvgVideoLikes = %v, want 12.5", snapshot.AvgVideoLikes)
	}
	if snapshot.AvgVideoDuration == nil || *snapshot.AvgVideoDuration != 35 {
		t.Errorf("AvgVideoDuration = %v, want 35", snapshot.AvgVideoDuration)
	}

	if snapshot.TopVideoByViews == nil || *snapshot.TopVideoByViews.Title != "V1" {
		t.Errorf("TopVideoByViews = %+v, want V1", snapshot.TopVideoByViews)
	}
	if snapshot.TopVideoByLikes == nil || *snapshot.TopVideoByLikes.Title != "V2" {
		t.Errorf("TopVideoByLikes = %+v, want V2", snapshot.TopVideoByLikes)
	}
	if snapshot.TopVideoByDuration == nil || *snapshot.TopVideoByDuration.Title != "V1" {
		t.Errorf("TopVideoByDuration = %+v, want V1", snapshot.TopVideoByDuration)
	}

	if snapshot.LongestPlaylist.Title == nil || *snapshot.LongestPlaylist.Title != "Mixes" {
		t.Errorf("LongestPlaylist = %+v, want Mixes", snapshot.LongestPlaylist)
	}
	if snapshot.LongestPlaylist.TotalDuration != 70 {
		t.Errorf("LongestPlaylist.TotalDuration = %d, want 70", snapshot.LongestPlaylist.TotalDuration)
	}
	if snapshot.AvgPlaylistDuration != 70 {
		t.Errorf("AvgPlaylistDuration = %v, want 70", snapshot.AvgPlaylistDuration)
	}

	if snapshot.TopChannelByVideos == nil || snapshot.TopChannelByVideos.VideoCount != 2 {
		t.Errorf("TopChannelByVideos = %+v, want 2 videos", snapshot.TopChannelByVideos)
	}
}

func TestCollect_EmptyStore(t *testing.T) {
	st := setupStore(t)

	agg := NewAggregator(st, filepath.Join(t.TempDir(), "metrics_log.json"))
	snapshot, err := agg.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if snapshot.VideoCount != 0 || snapshot.ChannelCount != 0 || snapshot.PlaylistCount != 0 {
		t.Errorf("counts = %d/%d/%d, want zeros",
			snapshot.VideoCount, snapshot.ChannelCount, snapshot.PlaylistCount)
	}
	if snapshot.AvgVideoViews != nil {
		t.Errorf("AvgVideoViews = %v, want nil", snapshot.AvgVideoViews)
	}
	if snapshot.TopVideoByViews != nil {
		t.Errorf("TopVideoByViews = %+v, want nil", snapshot.TopVideoByViews)
	}
	if snapshot.TopChannelByVideos != nil {
		t.Errorf("TopChannelByVideos = %+v, want nil", snapshot.TopChannelByVideos)
	}
}

func TestRun_WritesCompleteSnapshot(t *testing.T) {
	st := setupStore(t)
	seedVideos(t, st)

	path := filepath.Join(t.TempDir(), "metrics_log.json")
	agg := NewAggregator(st, path)

	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}

	for _, key := range []string{
		"video_count", "channel_count", "playlist_count",
		"avg_video_duration", "avg_video_views", "avg_video_likes",
		"longest_playlist", "avg_playlist_duration",
		"top_video_by_views", "top_video_by_likes", "top_video_by_duration",
		"top_channel_by_videos",
	} {
		if _, ok := got[key]; !ok {
			t.Errorf("snapshot missing key %q", key)
		}
	}
	if got["video_count"] != float64(2) {
		t.Errorf("video_count = %v, want 2", got["video_count"])
	}

	// A second run replaces the file in place.
	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot missing after rewrite: %v", err)
	}
}

func TestRun_ConcurrentReaderNeverSeesPartialSnapshot(t *testing.T) {
	st := setupStore(t)
	seedVideos(t, st)

	path := filepath.Join(t.TempDir(), "metrics_log.json")
	agg := NewAggregator(st, path)
	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stop := make(chan struct{})
	readErr := make(chan error, 1)
	go func() {
		var reads int
		for {
			select {
			case <-stop:
				if reads == 0 {
					readErr <- fmt.Errorf("reader never observed the snapshot")
				} else {
					readErr <- nil
				}
				return
			default:
			}
			data, err := os.ReadFile(path)
			if err != nil {
				readErr <- fmt.Errorf("read snapshot: %w", err)
				return
			}
			var snap map[string]any
			if err := json.Unmarshal(data, &snap); err != nil {
				readErr <- fmt.Errorf("read a partial snapshot: %w", err)
				return
			}
			reads++
		}
	}()

	for i := 0; i < 50; i++ {
		if err := agg.Run(context.Background()); err != nil {
			t.Fatalf("Run() pass %d error = %v", i, err)
		}
	}
	close(stop)

	if err := <-readErr; err != nil {
		t.Fatal(err)
	}
}
