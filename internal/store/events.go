package store

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// EventLog is an append-only diagnostic record for integrity
// violations. Every entry carries the full row values so a rejected
// record can be diagnosed after the fact.
type EventLog struct {
	mu     sync.Mutex
	file   *os.File
	logger zerolog.Logger
}

// NewEventLog opens (or creates) the append-only events file
func NewEventLog(path string) (*EventLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open events log: %w", err)
	}
	return &EventLog{
		file:   f,
		logger: zerolog.New(f).With().Timestamp().Logger(),
	}, nil
}

// Record appends one integrity violation with its row context
func (l *EventLog) Record(table string, row any, err error) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Error().
		Str("table", table).
		Interface("row", row).
		Err(err).
		Msg("integrity violation")
}

// Close closes the underlying file
func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
