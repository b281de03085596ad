package metrics

// Snapshot is the derived-metrics artifact, regenerated in full on
// every aggregation pass and consumed verbatim by the read endpoint.
type Snapshot struct {
	VideoCount    int64 `json:"video_count"`
	ChannelCount  int64 `json:"channel_count"`
	PlaylistCount int64 `json:"playlist_count"`

	// Averages are null until at least one video carries the field
	AvgVideoDuration *float64 `json:"avg_video_duration"`
	AvgVideoViews    *float64 `json:"avg_video_views"`
	AvgVideoLikes    *float64 `json:"avg_video_likes"`

	LongestPlaylist     PlaylistStat `json:"longest_playlist"`
	AvgPlaylistDuration float64      `json:"avg_playlist_duration"`

	TopVideoByViews    *VideoStat   `json:"top_video_by_views"`
	TopVideoByLikes    *VideoStat   `json:"top_video_by_likes"`
	TopVideoByDuration *VideoStat   `json:"top_video_by_duration"`
	TopChannelByVideos *ChannelStat `json:"top_channel_by_videos"`
}

// PlaylistStat is the playlist with the largest aggregate duration
type PlaylistStat struct {
	Title         *string `json:"title"`
	TotalDuration int64   `json:"total_duration"`
}

// VideoStat is the video leading one metric
type VideoStat struct {
	Title  *string `json:"title"`
	Metric *int64  `json:"metric"`
}

// ChannelStat is the channel with the most associated videos
type ChannelStat struct {
	Name       *string `json:"name"`
	VideoCount int64   `json:"video_count"`
}
