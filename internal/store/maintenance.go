package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Count returns the number of records of the given kind.
func (s *Store) Count(ctx context.Context, kind Kind) (int, error) {
	table, err := kind.table()
	if err != nil {
		return 0, storageErr("count", string(kind), err)
	}
	var n int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM `+table).Scan(&n); err != nil {
		return 0, storageErr("count", string(kind), err)
	}
	return n, nil
}

// Clear deletes every record of the given kind and returns how many were removed.
func (s *Store) Clear(ctx context.Context, kind Kind) (int64, error) {
	table, err := kind.table()
	if err != nil {
		return 0, storageErr("clear", string(kind), err)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM `+table)
	if err != nil {
		return 0, storageErr("clear", string(kind), err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("clear", string(kind), err)
	}
	return removed, nil
}

// Stats summarizes cache contents for diagnostics.
type Stats struct {
	Path           string
	SizeBytes      int64
	PosterCount    int
	PosterBytes    int64
	OldestPoster   time.Time
	NewestPoster   time.Time
	MetadataCount  int
	OldestMetadata time.Time
	NewestMetadata time.Time
}

// Stats reports record counts, poster payload size, age bounds, and the
// on-disk database footprint including the WAL.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{Path: s.path}

	var oldest, newest sql.NullInt64
	var bytes sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), SUM(LENGTH(image)), MIN(timestamp), MAX(timestamp) FROM posters`,
	).Scan(&stats.PosterCount, &bytes, &oldest, &newest)
	if err != nil {
		return stats, storageErr("stats", string(KindPosters), err)
	}
	stats.PosterBytes = bytes.Int64
	if oldest.Valid {
		stats.OldestPoster = fromMillis(oldest.Int64)
		stats.NewestPoster = fromMillis(newest.Int64)
	}

	oldest, newest = sql.NullInt64{}, sql.NullInt64{}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), MIN(last_updated), MAX(last_updated) FROM metadata`,
	).Scan(&stats.MetadataCount, &oldest, &newest)
	if err != nil {
		return stats, storageErr("stats", string(KindMetadata), err)
	}
	if oldest.Valid {
		stats.OldestMetadata = fromMillis(oldest.Int64)
		stats.NewestMetadata = fromMillis(newest.Int64)
	}

	for _, suffix := range []string{"", "-wal"} {
		if info, err := os.Stat(s.path + suffix); err == nil {
			stats.SizeBytes += info.Size()
		}
	}
	return stats, nil
}

// Health captures database diagnostics.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	IntegrityCheck   bool
	Error            string
}

// CheckHealth pings the database and runs an integrity check.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("cache database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, storageErr("health", "", fmt.Errorf("stat cache database: %w", err))
	}
	if info.IsDir() {
		return health, storageErr("health", "", fmt.Errorf("cache database path %q is a directory", s.path))
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, storageErr("health", "", fmt.Errorf("ping cache database: %w", err))
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, storageErr("health", "", fmt.Errorf("read schema version: %w", err))
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, storageErr("health", "", fmt.Errorf("integrity check: %w", err))
	}
	health.IntegrityCheck = strings.EqualFold(integrity, "ok")
	return health, nil
}
