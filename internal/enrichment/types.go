package enrichment

import (
	"context"
	"errors"
	"iter"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/display"
	"marquee/internal/omdb"
	"marquee/internal/store"
)

var (
	// ErrRunInFlight is returned by Run while another run is active.
	ErrRunInFlight = errors.New("enrichment run already in flight")
	// ErrSuperseded is returned by Run when Restart replaced it before it
	// could publish.
	ErrSuperseded = errors.New("enrichment run superseded")
)

// EnrichedEntity is a catalog entry plus whatever enrichment was resolved.
// Empty strings mean not fetched or unavailable upstream.
type EnrichedEntity struct {
	catalog.Entity
	Plot         string      `json:"plot,omitempty"`
	Director     string      `json:"director,omitempty"`
	Actors       string      `json:"actors,omitempty"`
	Rating       string      `json:"rating,omitempty"`
	Runtime      string      `json:"runtime,omitempty"`
	Genre        string      `json:"genre,omitempty"`
	Awards       string      `json:"awards,omitempty"`
	BoxOffice    string      `json:"boxOffice,omitempty"`
	PosterURL    string      `json:"posterUrl,omitempty"`
	PosterRef    display.Ref `json:"posterRef,omitempty"`
	CachedPoster bool        `json:"cachedPoster"`
}

// HasMetadata reports whether any enrichment field was resolved.
func (e EnrichedEntity) HasMetadata() bool {
	return e.Plot != "" || e.Director != "" || e.Actors != "" || e.Rating != "" ||
		e.Runtime != "" || e.Genre != "" || e.Awards != "" || e.BoxOffice != "" || e.PosterURL != ""
}

// View is the presentation-facing state of the orchestrator.
type View struct {
	Entities    []EnrichedEntity
	Loading     bool
	Progress    int
	RunID       string
	PublishedAt time.Time
}

// Source fetches metadata and poster bytes. *omdb.Client satisfies it.
type Source interface {
	FetchMetadata(ctx context.Context, title, year string) (*omdb.Metadata, bool)
	FetchImage(ctx context.Context, url string) (omdb.Image, bool)
}

// Cache is the subset of *store.Store the orchestrator uses.
type Cache interface {
	GetMetadata(ctx context.Context, id int) (*store.MetadataRecord, error)
	PutMetadata(ctx context.Context, rec store.MetadataRecord) (store.MetadataRecord, error)
	GetPoster(ctx context.Context, key string) (*store.PosterRecord, error)
	PutPoster(ctx context.Context, rec store.PosterRecord) error
	PosterStamps(ctx context.Context) iter.Seq2[store.PosterStamp, error]
	DeletePoster(ctx context.Context, key string) error
}
