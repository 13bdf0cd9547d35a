package retention

import (
	"cmp"
	"context"
	"iter"
	"log/slog"
	"slices"

	"marquee/internal/logging"
	"marquee/internal/store"
)

// PosterStore is the subset of store.Store that pruning needs. Only keys and
// timestamps are scanned; image bytes are never loaded.
type PosterStore interface {
	PosterStamps(ctx context.Context) iter.Seq2[store.PosterStamp, error]
	DeletePoster(ctx context.Context, key string) error
}

// Pruner evicts the oldest posters once their count exceeds a bound.
type Pruner struct {
	store  PosterStore
	logger *slog.Logger
}

// NewPruner builds a Pruner. A nil store makes Prune a no-op.
func NewPruner(st PosterStore, logger *slog.Logger) *Pruner {
	return &Pruner{store: st, logger: logging.NewComponentLogger(logger, "retention")}
}

// Prune deletes the oldest posters (ties broken by key) until exactly
// maxPosterCount remain and returns how many were deleted. A bound <= 0
// disables eviction. Any scan or delete failure is logged and reported as 0.
func (p *Pruner) Prune(ctx context.Context, maxPosterCount int) int {
	if p == nil || p.store == nil || maxPosterCount <= 0 {
		return 0
	}

	var stamps []store.PosterStamp
	for stamp, err := range p.store.PosterStamps(ctx) {
		if err != nil {
			p.warn("poster scan failed; skipping eviction", err)
			return 0
		}
		stamps = append(stamps, stamp)
	}
	if len(stamps) <= maxPosterCount {
		return 0
	}

	slices.SortFunc(stamps, func(a, b store.PosterStamp) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	excess := stamps[:len(stamps)-maxPosterCount]
	for _, stamp := range excess {
		if err := p.store.DeletePoster(ctx, stamp.Key); err != nil {
			p.warn("poster eviction failed; cache may stay above bound", err, logging.String("key", stamp.Key))
			return 0
		}
	}

	p.logger.Info("evicted old posters",
		logging.String(logging.FieldEventType, "posters_evicted"),
		logging.Int("deleted", len(excess)),
		logging.Int("remaining", maxPosterCount),
	)
	return len(excess)
}

func (p *Pruner) warn(msg string, err error, attrs ...logging.Attr) {
	logging.WarnWithContext(p.logger, msg, "poster_eviction_failed", append(attrs,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run 'marquee cache stats' to check the cache database"),
		logging.String(logging.FieldImpact, "poster cache may exceed enrichment.max_posters"),
	)...)
}
