package source

import (
	"context"
	"errors"
	"time"
)

// ErrSourceUnavailable classifies transport failures, timeouts and
// malformed upstream payloads. It is never fatal: callers skip the
// current unit of traversal and continue.
var ErrSourceUnavailable = errors.New("metadata source unavailable")

// RawRecord is the loosely typed metadata document returned by the
// platform. Keys may be absent; values follow encoding/json decoding
// (strings, float64, bool, nested maps and slices).
type RawRecord = map[string]any

// PlaylistRef identifies a playlist found in search results.
type PlaylistRef struct {
	ID    string
	Title string
	URL   string
}

// VideoRef identifies a video entry inside a playlist.
type VideoRef struct {
	ID            string
	URL           string
	PlaylistIndex int
}

// Source resolves search queries down to full video metadata.
// Implementations are rate-limited and fallible; any failure is
// reported as ErrSourceUnavailable. Result ordering is whatever the
// platform returns and is preserved as received.
type Source interface {
	// SearchPlaylists resolves a query to playlist candidates.
	SearchPlaylists(ctx context.Context, query string) ([]PlaylistRef, error)

	// ResolvePlaylist resolves a playlist to its metadata and the
	// ordered list of video entries it contains.
	ResolvePlaylist(ctx context.Context, ref PlaylistRef) (RawRecord, []VideoRef, error)

	// ResolveVideo resolves a video entry to its full metadata record.
	ResolveVideo(ctx context.Context, ref VideoRef) (RawRecord, error)
}

// Config holds configuration for the YouTube source adapter
type Config struct {
	// BaseURL is the platform origin
	BaseURL string
	// RateLimitBytes is the shared download budget in bytes per second
	RateLimitBytes int
	// Timeout bounds every individual call
	Timeout time.Duration
	// UserAgent is the HTTP User-Agent header
	UserAgent string
}

// DefaultConfig returns default source configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://www.youtube.com",
		RateLimitBytes: 3 * 1024 * 1024, // 3 MiB/s
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
