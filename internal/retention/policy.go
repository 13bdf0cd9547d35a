package retention

import (
	"time"

	"marquee/internal/config"
	"marquee/internal/store"
)

// Policy holds the freshness windows.
type Policy struct {
	MetadataTTL time.Duration
	PosterTTL   time.Duration
	Now         func() time.Time
}

// NewPolicy reads the freshness windows from cfg.
func NewPolicy(cfg *config.Config) Policy {
	return Policy{
		MetadataTTL: cfg.MetadataTTL(),
		PosterTTL:   cfg.PosterTTL(),
		Now:         time.Now,
	}
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// MetadataFresh reports whether rec is younger than the metadata window.
func (p Policy) MetadataFresh(rec *store.MetadataRecord) bool {
	return rec != nil && p.now().Sub(rec.LastUpdated) < p.MetadataTTL
}

// PosterFresh reports whether rec is younger than the poster window.
func (p Policy) PosterFresh(rec *store.PosterRecord) bool {
	return rec != nil && len(rec.Image) > 0 && p.now().Sub(rec.Timestamp) < p.PosterTTL
}
