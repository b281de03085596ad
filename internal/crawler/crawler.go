// Package crawler drives the discovery pipeline: queries out of the
// generator, playlists and videos out of the source, normalized
// records into the store, and a metrics pass every Nth record.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/yt-harvester-go/internal/metrics"
	"github.com/user/yt-harvester-go/internal/normalize"
	"github.com/user/yt-harvester-go/internal/query"
	"github.com/user/yt-harvester-go/internal/source"
	"github.com/user/yt-harvester-go/internal/store"
	"github.com/user/yt-harvester-go/internal/telemetry"
)

// Options holds crawl loop tuning
type Options struct {
	// Every triggers a metrics pass after this many persisted records
	Every int
	// Archive enables the raw-document archive
	Archive bool
	// MaxAttempts bounds a single HuntOne pass
	MaxAttempts int
	// RetryDelay is the pause after a skipped source failure, so a
	// persistently dead source never turns the loop into a hot spin
	RetryDelay time.Duration
}

// Crawler walks query -> playlists -> videos -> metadata and persists
// every record it fully resolves. One record is resolved and persisted
// before the next begins; all state is instance-owned so crawlers can
// coexist in tests.
type Crawler struct {
	source     source.Source
	gen        query.Generator
	store      store.Store
	aggregator *metrics.Aggregator
	opts       Options
	processed  int64
}

// New creates a crawler instance
func New(src source.Source, gen query.Generator, st store.Store, agg *metrics.Aggregator, opts Options) *Crawler {
	if opts.Every <= 0 {
		opts.Every = 5
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	return &Crawler{
		source:     src,
		gen:        gen,
		store:      st,
		aggregator: agg,
		opts:       opts,
	}
}

// Run loops until the context is cancelled or the store fails.
// Source failures never escape: the failing playlist or video is
// skipped and traversal resumes at the next sibling.
func (c *Crawler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			log.Info().Int64("processed", c.processed).Msg("Crawler stopping")
			return err
		}

		q := c.gen.Next()
		log.Info().Str("query", q).Msg("Selecting query")

		refs, err := c.source.SearchPlaylists(ctx, q)
		if err != nil {
			if errors.Is(err, source.ErrSourceUnavailable) {
				telemetry.RecordSourceFailure("search")
				log.Warn().Err(err).Str("query", q).Msg("Search failed, advancing to next query")
				c.pause(ctx)
				continue
			}
			return err
		}

		if err := c.crawlPlaylists(ctx, refs); err != nil {
			return err
		}
	}
}

// crawlPlaylists walks every playlist candidate of one query
func (c *Crawler) crawlPlaylists(ctx context.Context, refs []source.PlaylistRef) error {
	for _, ref := range refs {
		if ctx.Err() != nil {
			return nil
		}

		meta, entries, err := c.source.ResolvePlaylist(ctx, ref)
		if err != nil {
			if errors.Is(err, source.ErrSourceUnavailable) {
				telemetry.RecordSourceFailure("playlist")
				log.Warn().Err(err).Str("playlist", ref.ID).Msg("Playlist resolution failed, skipping")
				c.pause(ctx)
				continue
			}
			return err
		}

		if err := c.crawlVideos(ctx, meta, entries); err != nil {
			return err
		}
	}
	return nil
}

// crawlVideos resolves and persists every video entry of one playlist
func (c *Crawler) crawlVideos(ctx context.Context, playlistMeta source.RawRecord, entries []source.VideoRef) error {
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil
		}

		rec, err := c.source.ResolveVideo(ctx, entry)
		if err != nil {
			if errors.Is(err, source.ErrSourceUnavailable) {
				telemetry.RecordSourceFailure("video")
				log.Warn().Err(err).Str("video", entry.ID).Msg("Video resolution failed, skipping")
				c.pause(ctx)
				continue
			}
			return err
		}

		mergePlaylistContext(rec, playlistMeta, entry.PlaylistIndex)

		if err := c.persist(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// persist normalizes and stores one record, then runs the metrics
// pass when the counter crosses the configured multiple. The record
// itself runs under an uncancellable context so shutdown lets the
// in-flight record finish.
func (c *Crawler) persist(ctx context.Context, rec source.RawRecord) error {
	normalized, err := normalize.Build(rec)
	if err != nil {
		log.Warn().Err(err).Msg("Malformed record, skipping")
		return nil
	}

	recordCtx := context.WithoutCancel(ctx)
	if err := c.store.ProcessRecord(recordCtx, normalized); err != nil {
		return err
	}

	if c.opts.Archive {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal raw document: %w", err)
		}
		if err := c.store.SaveRawDocument(recordCtx, normalized.Video.ID, doc); err != nil {
			return err
		}
	}

	c.processed++
	telemetry.RecordPersisted()
	log.Info().
		Str("video", normalized.Video.ID).
		Int64("processed", c.processed).
		Msg("Record persisted")

	if c.processed%int64(c.opts.Every) == 0 {
		if err := c.aggregate(recordCtx); err != nil {
			return err
		}
	}
	return nil
}

// aggregate runs one synchronous metrics pass. Snapshot write
// failures are logged and survived; a failing store is fatal.
func (c *Crawler) aggregate(ctx context.Context) error {
	start := time.Now()
	err := c.aggregator.Run(ctx)
	telemetry.RecordAggregation(time.Since(start))
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrStoreUnavailable) {
		return err
	}
	var integrityErr *store.IntegrityError
	if errors.As(err, &integrityErr) {
		return err
	}
	log.Error().Err(err).Msg("Metrics aggregation failed")
	return nil
}

// HuntOne makes a bounded number of query attempts to resolve and
// persist at least one record.
func (c *Crawler) HuntOne(ctx context.Context) error {
	before := c.processed
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		q := c.gen.Next()
		log.Info().Int("attempt", attempt).Int("max", c.opts.MaxAttempts).Str("query", q).Msg("Hunting for a record")

		refs, err := c.source.SearchPlaylists(ctx, q)
		if err != nil {
			if errors.Is(err, source.ErrSourceUnavailable) {
				c.pause(ctx)
				continue
			}
			return err
		}
		if err := c.crawlPlaylists(ctx, refs); err != nil {
			return err
		}
		if c.processed > before {
			return nil
		}
	}
	return fmt.Errorf("no record found in %d attempts", c.opts.MaxAttempts)
}

// pause sleeps for the retry delay, returning early on cancellation
func (c *Crawler) pause(ctx context.Context) {
	timer := time.NewTimer(c.opts.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Processed returns the number of records persisted by this instance
func (c *Crawler) Processed() int64 {
	return c.processed
}

// mergePlaylistContext copies the parent playlist fields into the
// video record so normalization sees one self-contained document.
func mergePlaylistContext(rec, playlistMeta source.RawRecord, index int) {
	for _, key := range []string{"playlist_id", "playlist_title", "playlist_url"} {
		if v, ok := playlistMeta[key]; ok {
			rec[key] = v
		}
	}
	if index > 0 {
		rec["playlist_index"] = index
	}
}
