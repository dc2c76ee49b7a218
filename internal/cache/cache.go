// Package cache stores analysis results in SQLite, keyed by the audio
// content and the settings that influence detection.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	beatgrid "github.com/tphakala/go-beatgrid"
)

const createResultsTable = `
CREATE TABLE IF NOT EXISTS results (
    key         TEXT PRIMARY KEY,
    bpm         REAL NOT NULL,
    beat_offset REAL NOT NULL,
    first_bar   REAL NOT NULL,
    created_at  INTEGER NOT NULL
);
`

// Store is a SQLite-backed result cache. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path. Use ":memory:" for a
// throwaway cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening cache database: %w", err)
	}
	if _, err := db.Exec(createResultsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating results table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the cached result for key. The boolean is false on a miss.
func (s *Store) Get(ctx context.Context, key string) (beatgrid.BeatInfo, bool, error) {
	var info beatgrid.BeatInfo
	err := s.db.QueryRowContext(ctx,
		"SELECT bpm, beat_offset, first_bar FROM results WHERE key = ?", key,
	).Scan(&info.BPM, &info.Offset, &info.FirstBar)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return beatgrid.BeatInfo{}, false, nil
	case err != nil:
		return beatgrid.BeatInfo{}, false, fmt.Errorf("error reading cached result: %w", err)
	}
	return info, true, nil
}

// Put stores info under key, replacing any previous entry. Timing data is
// not cached.
func (s *Store) Put(ctx context.Context, key string, info beatgrid.BeatInfo) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO results (key, bpm, beat_offset, first_bar, created_at) VALUES (?, ?, ?, ?, ?)",
		key, info.BPM, info.Offset, info.FirstBar, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("error storing result: %w", err)
	}
	return nil
}

// Len returns the number of cached results.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM results").Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting results: %w", err)
	}
	return n, nil
}

// Key derives the cache key for audio data analyzed with config from the
// content hash and every numeric setting. Collaborators, logging and
// instrumentation do not take part.
func Key(data []byte, config beatgrid.Config) string {
	h := sha256.New()
	h.Write(data)
	fmt.Fprintf(h, "|rate=%d|lp=%g|hp=%g|bpm=%g-%g|sig=%d|int=%t|prec=%d|win=%g|phase=%d",
		config.SampleRate,
		config.LowPassFreq,
		config.HighPassFreq,
		config.BPMRange.Min,
		config.BPMRange.Max,
		config.TimeSignature,
		config.RoundToInteger,
		config.Precision,
		config.WindowSeconds,
		config.PhaseSource,
	)
	return hex.EncodeToString(h.Sum(nil))
}
