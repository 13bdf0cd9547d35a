package store

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"strconv"
	"time"
)

// MetadataRecord is the cached enrichment snapshot for one catalog entity.
type MetadataRecord struct {
	EntityID    int
	Plot        string
	Director    string
	Actors      string
	Rating      string
	Runtime     string
	Genre       string
	Awards      string
	BoxOffice   string
	PosterURL   string
	LastUpdated time.Time
}

const metadataColumns = "id, plot, director, actors, rating, runtime, genre, awards, box_office, poster_url, last_updated"

func scanMetadata(scanner interface{ Scan(dest ...any) error }) (MetadataRecord, error) {
	var (
		rec         MetadataRecord
		plot        sql.NullString
		director    sql.NullString
		actors      sql.NullString
		rating      sql.NullString
		runtime     sql.NullString
		genre       sql.NullString
		awards      sql.NullString
		boxOffice   sql.NullString
		posterURL   sql.NullString
		lastUpdated int64
	)
	if err := scanner.Scan(
		&rec.EntityID,
		&plot,
		&director,
		&actors,
		&rating,
		&runtime,
		&genre,
		&awards,
		&boxOffice,
		&posterURL,
		&lastUpdated,
	); err != nil {
		return MetadataRecord{}, err
	}
	rec.Plot = plot.String
	rec.Director = director.String
	rec.Actors = actors.String
	rec.Rating = rating.String
	rec.Runtime = runtime.String
	rec.Genre = genre.String
	rec.Awards = awards.String
	rec.BoxOffice = boxOffice.String
	rec.PosterURL = posterURL.String
	rec.LastUpdated = fromMillis(lastUpdated)
	return rec, nil
}

// GetMetadata returns the metadata stored for id, or nil when absent.
func (s *Store) GetMetadata(ctx context.Context, id int) (*MetadataRecord, error) {
	ctx = ensureContext(ctx)
	var (
		rec MetadataRecord
		err error
	)
	retryErr := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+metadataColumns+` FROM metadata WHERE id = ?`, id)
		rec, err = scanMetadata(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	})
	if retryErr != nil {
		return nil, storageErr("get metadata", strconv.Itoa(id), retryErr)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &rec, nil
}

// PutMetadata inserts or replaces the record for rec.EntityID and returns the
// stored copy. LastUpdated defaults to now and is bumped past any existing
// value so it strictly increases across writes.
func (s *Store) PutMetadata(ctx context.Context, rec MetadataRecord) (MetadataRecord, error) {
	ctx = ensureContext(ctx)
	key := strconv.Itoa(rec.EntityID)
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now()
	}
	var stored int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO metadata (`+metadataColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET
                 plot = excluded.plot,
                 director = excluded.director,
                 actors = excluded.actors,
                 rating = excluded.rating,
                 runtime = excluded.runtime,
                 genre = excluded.genre,
                 awards = excluded.awards,
                 box_office = excluded.box_office,
                 poster_url = excluded.poster_url,
                 last_updated = MAX(excluded.last_updated, metadata.last_updated + 1)
             RETURNING last_updated`,
			rec.EntityID,
			nullableString(rec.Plot),
			nullableString(rec.Director),
			nullableString(rec.Actors),
			nullableString(rec.Rating),
			nullableString(rec.Runtime),
			nullableString(rec.Genre),
			nullableString(rec.Awards),
			nullableString(rec.BoxOffice),
			nullableString(rec.PosterURL),
			toMillis(rec.LastUpdated),
		).Scan(&stored)
	})
	if err != nil {
		return MetadataRecord{}, storageErr("put metadata", key, err)
	}
	rec.LastUpdated = fromMillis(stored)
	return rec, nil
}

// DeleteMetadata removes the record for id. Deleting an absent id is not an error.
func (s *Store) DeleteMetadata(ctx context.Context, id int) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM metadata WHERE id = ?`, id)
	return storageErr("delete metadata", strconv.Itoa(id), err)
}

// Metadata lazily yields every metadata record ordered by id.
func (s *Store) Metadata(ctx context.Context) iter.Seq2[MetadataRecord, error] {
	return queryRows(ctx, s, "iterate metadata",
		`SELECT `+metadataColumns+` FROM metadata ORDER BY id`, scanMetadata)
}
