package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	resultsPath  = "/results"
	playlistPath = "/playlist"
	watchPath    = "/watch"
	// playlistFilter is the pre-encoded search filter that restricts
	// results to playlists (the &sp= parameter of the results page).
	playlistFilter = "EgIQAw%3D%3D"
)

// YouTubeSource implements Source against the public YouTube HTML
// surfaces. Search, playlist and watch pages all embed their payload
// as JSON in the initial document, which the parser extracts.
type YouTubeSource struct {
	client  *http.Client
	limiter *rate.Limiter
	config  *Config
}

// NewYouTubeSource creates a new YouTube source adapter
func NewYouTubeSource(cfg *Config) *YouTubeSource {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	// Token bucket over bytes: the rate is the per-second budget and
	// the burst is one second's worth of it.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitBytes), cfg.RateLimitBytes)

	return &YouTubeSource{
		client:  client,
		limiter: limiter,
		config:  cfg,
	}
}

// SearchPlaylists resolves a query to playlist candidates
func (s *YouTubeSource) SearchPlaylists(ctx context.Context, query string) ([]PlaylistRef, error) {
	searchURL := s.searchURL(query)

	html, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", ErrSourceUnavailable, query, err)
	}

	data, err := extractInitialData(html)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", ErrSourceUnavailable, query, err)
	}

	refs := parsePlaylistRefs(data, s.config.BaseURL)
	log.Info().Str("query", query).Int("count", len(refs)).Msg("Found playlist candidates")
	return refs, nil
}

// ResolvePlaylist resolves a playlist to its metadata and video entries
func (s *YouTubeSource) ResolvePlaylist(ctx context.Context, ref PlaylistRef) (RawRecord, []VideoRef, error) {
	playlistURL := s.playlistURL(ref)

	html, err := s.fetch(ctx, playlistURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: playlist %s: %v", ErrSourceUnavailable, ref.ID, err)
	}

	data, err := extractInitialData(html)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: playlist %s: %v", ErrSourceUnavailable, ref.ID, err)
	}

	meta, entries := parsePlaylistPage(data, ref, playlistURL, s.config.BaseURL)
	log.Info().Str("playlist", ref.ID).Int("videos", len(entries)).Msg("Resolved playlist")
	return meta, entries, nil
}

// ResolveVideo resolves a video entry to its full metadata record
func (s *YouTubeSource) ResolveVideo(ctx context.Context, ref VideoRef) (RawRecord, error) {
	videoURL := normalizeVideoURL(s.config.BaseURL, ref.ID, ref.URL)
	if videoURL == "" {
		return nil, fmt.Errorf("%w: video entry without id or url", ErrSourceUnavailable)
	}

	html, err := s.fetch(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s: %v", ErrSourceUnavailable, ref.ID, err)
	}

	rec, err := parseWatchPage(html, videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s: %v", ErrSourceUnavailable, ref.ID, err)
	}
	return rec, nil
}

// fetch performs a single rate-limited HTTP request
func (s *YouTubeSource) fetch(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request error: %w", err)
	}

	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Int("status", resp.StatusCode).
		Str("url", targetURL).
		Msg("HTTP response")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(newLimitedReader(ctx, resp.Body, s.limiter))
	if err != nil {
		return "", fmt.Errorf("read body error: %w", err)
	}

	return string(body), nil
}

// searchURL builds the results-page URL with the playlist filter applied
func (s *YouTubeSource) searchURL(query string) string {
	return fmt.Sprintf("%s%s?search_query=%s&sp=%s",
		s.config.BaseURL, resultsPath, url.QueryEscape(query), playlistFilter)
}

// playlistURL resolves the page URL for a playlist reference
func (s *YouTubeSource) playlistURL(ref PlaylistRef) string {
	if strings.HasPrefix(ref.URL, "http") {
		return ref.URL
	}
	return fmt.Sprintf("%s%s?list=%s", s.config.BaseURL, playlistPath, url.QueryEscape(ref.ID))
}

// normalizeVideoURL prefers an absolute URL from the source and falls
// back to building a watch URL from the bare video id.
func normalizeVideoURL(baseURL, videoID, videoURL string) string {
	if strings.HasPrefix(videoURL, "http") {
		return videoURL
	}
	if videoID != "" {
		return fmt.Sprintf("%s%s?v=%s", baseURL, watchPath, url.QueryEscape(videoID))
	}
	return videoURL
}

// GetLimiter returns the rate limiter for testing purposes
func (s *YouTubeSource) GetLimiter() *rate.Limiter {
	return s.limiter
}
