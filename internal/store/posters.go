package store

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"time"
)

// PosterRecord is a cached poster image keyed by PosterKey.
type PosterRecord struct {
	Key         string
	EntityID    int
	Title       string
	Year        string
	Image       []byte
	ContentType string
	Timestamp   time.Time
}

const posterColumns = "id, entity_id, title, year, image, content_type, timestamp"

func scanPoster(scanner interface{ Scan(dest ...any) error }) (PosterRecord, error) {
	var (
		rec         PosterRecord
		year        sql.NullString
		contentType sql.NullString
		timestamp   int64
	)
	if err := scanner.Scan(&rec.Key, &rec.EntityID, &rec.Title, &year, &rec.Image, &contentType, &timestamp); err != nil {
		return PosterRecord{}, err
	}
	rec.Year = year.String
	rec.ContentType = contentType.String
	rec.Timestamp = fromMillis(timestamp)
	return rec, nil
}

// GetPoster returns the poster stored under key, or nil when absent.
func (s *Store) GetPoster(ctx context.Context, key string) (*PosterRecord, error) {
	ctx = ensureContext(ctx)
	var (
		rec PosterRecord
		err error
	)
	retryErr := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+posterColumns+` FROM posters WHERE id = ?`, key)
		rec, err = scanPoster(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	})
	if retryErr != nil {
		return nil, storageErr("get poster", key, retryErr)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &rec, nil
}

// PutPoster inserts or replaces a poster. A zero Timestamp is set to now.
func (s *Store) PutPoster(ctx context.Context, rec PosterRecord) error {
	if rec.Key == "" {
		return storageErr("put poster", "", errors.New("poster key is required"))
	}
	if len(rec.Image) == 0 {
		return storageErr("put poster", rec.Key, errors.New("poster image is empty"))
	}
	if err := s.ensureFreeSpace(); err != nil {
		return storageErr("put poster", rec.Key, err)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO posters (`+posterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             entity_id = excluded.entity_id,
             title = excluded.title,
             year = excluded.year,
             image = excluded.image,
             content_type = excluded.content_type,
             timestamp = excluded.timestamp`,
		rec.Key,
		rec.EntityID,
		rec.Title,
		nullableString(rec.Year),
		rec.Image,
		nullableString(rec.ContentType),
		toMillis(rec.Timestamp),
	)
	return storageErr("put poster", rec.Key, err)
}

// DeletePoster removes a poster. Deleting an absent key is not an error.
func (s *Store) DeletePoster(ctx context.Context, key string) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM posters WHERE id = ?`, key)
	return storageErr("delete poster", key, err)
}

// Posters lazily yields every poster ordered by timestamp, oldest first. The
// sequence is single-pass; stop ranging to release the underlying rows.
func (s *Store) Posters(ctx context.Context) iter.Seq2[PosterRecord, error] {
	return queryRows(ctx, s, "iterate posters",
		`SELECT `+posterColumns+` FROM posters ORDER BY timestamp, id`, scanPoster)
}

// PosterStamp is a poster's key and cache time without the image bytes.
type PosterStamp struct {
	Key       string
	Timestamp time.Time
}

// PosterStamps yields the key and timestamp of every poster, oldest first with
// ties broken by key. Eviction scans use it to avoid reading image blobs.
func (s *Store) PosterStamps(ctx context.Context) iter.Seq2[PosterStamp, error] {
	return queryRows(ctx, s, "iterate poster stamps",
		`SELECT id, timestamp FROM posters ORDER BY timestamp, id`,
		func(scanner interface{ Scan(dest ...any) error }) (PosterStamp, error) {
			var (
				stamp PosterStamp
				ms    int64
			)
			if err := scanner.Scan(&stamp.Key, &ms); err != nil {
				return PosterStamp{}, err
			}
			stamp.Timestamp = fromMillis(ms)
			return stamp, nil
		})
}

func queryRows[T any](ctx context.Context, s *Store, op, query string, scan func(interface{ Scan(dest ...any) error }) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		ctx := ensureContext(ctx)
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			yield(zero, storageErr(op, "", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			item, err := scan(rows)
			if err != nil {
				yield(zero, storageErr(op, "", err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, storageErr(op, "", err))
		}
	}
}
