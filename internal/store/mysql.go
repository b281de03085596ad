package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/user/yt-harvester-go/internal/config"
	"github.com/user/yt-harvester-go/internal/model"
	"github.com/user/yt-harvester-go/internal/normalize"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MySQLStore implements Store using MySQL through GORM
type MySQLStore struct {
	db     *gorm.DB
	events *EventLog
}

// NewMySQLStore creates a new MySQL store instance
func NewMySQLStore(cfg *config.DBConfig) (*MySQLStore, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	events, err := NewEventLog(cfg.EventsPath)
	if err != nil {
		return nil, err
	}

	return NewFromDB(db, events)
}

// NewFromDB wraps an open GORM handle. Tests use it to run the same
// store code against a local SQLite database.
func NewFromDB(db *gorm.DB, events *EventLog) (*MySQLStore, error) {
	if err := db.AutoMigrate(
		&model.Channel{},
		&model.Playlist{},
		&model.Video{},
		&model.Category{},
		&model.VideoCategory{},
		&model.Tag{},
		&model.RawDocument{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &MySQLStore{db: db, events: events}, nil
}

// UpsertChannel inserts a channel if its id is not present yet
func (s *MySQLStore) UpsertChannel(ctx context.Context, channel *model.Channel) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(channel)
	return s.classify("channels", channel, result.Error)
}

// UpsertPlaylist inserts a playlist if its id is not present yet
func (s *MySQLStore) UpsertPlaylist(ctx context.Context, playlist *model.Playlist) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(playlist)
	return s.classify("playlists", playlist, result.Error)
}

// UpsertVideo inserts a video if its id is not present yet
func (s *MySQLStore) UpsertVideo(ctx context.Context, video *model.Video) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(video)
	return s.classify("videos", video, result.Error)
}

// InsertTags inserts one tag row per entry for the given video.
// A (text, video) pair already present is a no-op, so re-processing
// a previously seen video never grows the table.
func (s *MySQLStore) InsertTags(ctx context.Context, videoID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	rows := make([]model.Tag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, model.Tag{Text: tag, VideoID: videoID})
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "text"}, {Name: "video_id"}},
		DoNothing: true,
	}).CreateInBatches(rows, 100)
	return s.classify("tags", rows, result.Error)
}

// UpsertCategory inserts a category by name and returns the surviving
// row's id. The conditional insert and the read-back make it correct
// when the same name arrives concurrently from two units of work:
// there is no insert-then-select window to race through.
func (s *MySQLStore) UpsertCategory(ctx context.Context, name string) (uint, error) {
	category := model.Category{Name: name}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&category)
	if err := s.classify("categories", category, result.Error); err != nil {
		return 0, err
	}
	if result.RowsAffected == 1 && category.ID != 0 {
		return category.ID, nil
	}

	var existing model.Category
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err != nil {
		return 0, s.classify("categories", category, err)
	}
	return existing.ID, nil
}

// LinkVideoCategory inserts the junction row; duplicate links are a no-op
func (s *MySQLStore) LinkVideoCategory(ctx context.Context, videoID string, categoryID uint) error {
	link := model.VideoCategory{VideoID: videoID, CategoryID: categoryID}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}, {Name: "category_id"}},
		DoNothing: true,
	}).Create(&link)
	return s.classify("video_categories", link, result.Error)
}

// ProcessRecord persists one record in the fixed order Channel,
// Playlist, Video, Tags, Categories. Each step autocommits, so a
// failure part-way leaves no child row referencing an unpersisted
// parent; already-applied steps stay in place.
func (s *MySQLStore) ProcessRecord(ctx context.Context, rec *normalize.Record) error {
	if rec.Channel != nil {
		if err := s.UpsertChannel(ctx, rec.Channel); err != nil {
			return err
		}
	}

	if rec.Playlist != nil {
		if err := s.UpsertPlaylist(ctx, rec.Playlist); err != nil {
			return err
		}
	}

	if err := s.UpsertVideo(ctx, rec.Video); err != nil {
		return err
	}

	if err := s.InsertTags(ctx, rec.Video.ID, rec.Tags); err != nil {
		return err
	}

	for _, name := range rec.Categories {
		categoryID, err := s.UpsertCategory(ctx, name)
		if err != nil {
			return err
		}
		if err := s.LinkVideoCategory(ctx, rec.Video.ID, categoryID); err != nil {
			return err
		}
	}

	return nil
}

// SaveRawDocument archives the raw metadata document, once per video id
func (s *MySQLStore) SaveRawDocument(ctx context.Context, videoID string, doc []byte) error {
	row := model.RawDocument{
		VideoID:   videoID,
		Document:  datatypes.JSON(doc),
		FetchedAt: time.Now(),
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		DoNothing: true,
	}).Create(&row)
	return s.classify("raw_documents", row.VideoID, result.Error)
}

// CountVideos returns the total count of videos
func (s *MySQLStore) CountVideos(ctx context.Context) (int64, error) {
	return s.count(ctx, &model.Video{})
}

// CountChannels returns the total count of channels
func (s *MySQLStore) CountChannels(ctx context.Context) (int64, error) {
	return s.count(ctx, &model.Channel{})
}

// CountPlaylists returns the total count of playlists
func (s *MySQLStore) CountPlaylists(ctx context.Context) (int64, error) {
	return s.count(ctx, &model.Playlist{})
}

func (s *MySQLStore) count(ctx context.Context, entity any) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(entity).Count(&count)
	if result.Error != nil {
		return 0, s.classify("count", entity, result.Error)
	}
	return count, nil
}

// VideoAverages returns the mean duration, views and likes over all
// videos. Each average is nil when no row carries a value for it.
func (s *MySQLStore) VideoAverages(ctx context.Context) (*Averages, error) {
	var row struct {
		Duration sql.NullFloat64
		Views    sql.NullFloat64
		Likes    sql.NullFloat64
	}
	result := s.db.WithContext(ctx).Model(&model.Video{}).
		Select("AVG(duration) AS duration, AVG(views) AS views, AVG(likes) AS likes").
		Scan(&row)
	if result.Error != nil {
		return nil, s.classify("videos", nil, result.Error)
	}

	avg := &Averages{}
	if row.Duration.Valid {
		avg.Duration = &row.Duration.Float64
	}
	if row.Views.Valid {
		avg.Views = &row.Views.Float64
	}
	if row.Likes.Valid {
		avg.Likes = &row.Likes.Float64
	}
	return avg, nil
}

// PlaylistDurations returns each playlist's aggregate video duration,
// longest first.
func (s *MySQLStore) PlaylistDurations(ctx context.Context) ([]PlaylistDuration, error) {
	var rows []PlaylistDuration
	result := s.db.WithContext(ctx).Raw(`
		SELECT p.title AS title, SUM(COALESCE(v.duration, 0)) AS total_duration
		FROM playlists p
		JOIN videos v ON v.playlist_id = p.id
		GROUP BY p.id, p.title
		ORDER BY total_duration DESC`).Scan(&rows)
	if result.Error != nil {
		return nil, s.classify("playlists", nil, result.Error)
	}
	return rows, nil
}

// TopVideoByViews returns the most viewed video, or nil without videos
func (s *MySQLStore) TopVideoByViews(ctx context.Context) (*TopVideo, error) {
	return s.topVideo(ctx, "views")
}

// TopVideoByLikes returns the most liked video, or nil without videos
func (s *MySQLStore) TopVideoByLikes(ctx context.Context) (*TopVideo, error) {
	return s.topVideo(ctx, "likes")
}

// TopVideoByDuration returns the longest video, or nil without videos
func (s *MySQLStore) TopVideoByDuration(ctx context.Context) (*TopVideo, error) {
	return s.topVideo(ctx, "duration")
}

// topVideo takes the first row of ORDER BY column DESC. Ties land on
// whichever row the store yields first for equal keys.
func (s *MySQLStore) topVideo(ctx context.Context, column string) (*TopVideo, error) {
	var row TopVideo
	result := s.db.WithContext(ctx).Model(&model.Video{}).
		Select(fmt.Sprintf("title, %s AS metric", column)).
		Order(fmt.Sprintf("%s DESC", column)).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, s.classify("videos", nil, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

// TopChannelByVideos returns the channel with the most videos, or nil
func (s *MySQLStore) TopChannelByVideos(ctx context.Context) (*TopChannel, error) {
	var row TopChannel
	result := s.db.WithContext(ctx).Raw(`
		SELECT c.name AS name, COUNT(v.id) AS video_count
		FROM channels c
		JOIN videos v ON v.channel_id = c.id
		GROUP BY c.id, c.name
		ORDER BY video_count DESC
		LIMIT 1`).Scan(&row)
	if result.Error != nil {
		return nil, s.classify("channels", nil, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

// Ping checks database connectivity
func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection and the events log
func (s *MySQLStore) Close() error {
	if err := s.events.Close(); err != nil {
		return err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm.DB instance (for testing purposes)
func (s *MySQLStore) DB() *gorm.DB {
	return s.db
}

// classify maps a database error onto the store's error taxonomy:
// duplicate natural keys are success, lost connections surface as
// ErrStoreUnavailable, anything else is an IntegrityError appended to
// the events log with its row values before propagating.
func (s *MySQLStore) classify(table string, row any, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.events.Record(table, row, err)
	return &IntegrityError{Table: table, Row: row, Err: err}
}

// isUnavailable reports whether the error looks like a lost connection
// rather than a constraint failure.
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"invalid connection",
		"sql: database is closed",
		"broken pipe",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
