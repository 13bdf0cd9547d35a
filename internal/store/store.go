package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	_ "modernc.org/sqlite"

	"marquee/internal/config"
)

// Kind names one of the two record collections.
type Kind string

const (
	KindPosters  Kind = "posters"
	KindMetadata Kind = "metadata"
)

// Kinds lists every record kind in a stable order.
func Kinds() []Kind { return []Kind{KindPosters, KindMetadata} }

// ParseKind validates a user-supplied kind name.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindPosters, "poster":
		return KindPosters, nil
	case KindMetadata, "meta":
		return KindMetadata, nil
	default:
		return "", fmt.Errorf("unknown record kind %q (want posters or metadata)", value)
	}
}

func (k Kind) table() (string, error) {
	switch k {
	case KindPosters:
		return "posters", nil
	case KindMetadata:
		return "metadata", nil
	default:
		return "", fmt.Errorf("unknown record kind %q", string(k))
	}
}

// statfsFunc allows tests to stub free-space checks.
type statfsFunc func(path string) (free uint64, err error)

// Store manages cache persistence backed by SQLite.
type Store struct {
	db      *sql.DB
	path    string
	minFree uint64
	statfs  statfsFunc
}

// Options tune a Store opened with OpenPath.
type Options struct {
	// MinFreeBytes is the free-space floor below which poster writes fail.
	// Zero disables the check.
	MinFreeBytes uint64
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the cache database inside the configured
// data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, storageErr("open", "", fmt.Errorf("ensure directories: %w", err))
	}
	return OpenPath(cfg.DatabasePath(), Options{MinFreeBytes: cfg.MinFreeBytes()})
}

// OpenPath opens the database at path, creating the file and schema when
// missing. Opening an existing database is idempotent.
func OpenPath(path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageErr("open", "", fmt.Errorf("create database directory: %w", err))
		}
	}

	dsn := "file:" + path + "?" + url.Values{"_pragma": {"busy_timeout(5000)"}}.Encode()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageErr("open", "", fmt.Errorf("open sqlite db: %w", err))
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, storageErr("open", "", fmt.Errorf("apply pragma %q: %w", pragma, execErr))
		}
	}

	store := &Store{db: db, path: path, minFree: opts.MinFreeBytes, statfs: realStatfs}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, storageErr("open", "", err)
	}

	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureFreeSpace() error {
	if s.minFree == 0 || s.statfs == nil {
		return nil
	}
	free, err := s.statfs(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("statfs: %w", err)
	}
	if free < s.minFree {
		return fmt.Errorf("%w: %d bytes free, floor is %d", ErrLowDiskSpace, free, s.minFree)
	}
	return nil
}

func realStatfs(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

func toMillis(ts time.Time) int64 {
	return ts.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
