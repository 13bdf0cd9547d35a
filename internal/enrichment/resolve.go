package enrichment

import (
	"context"
	"log/slog"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/omdb"
	"marquee/internal/store"
)

type resolved struct {
	entity EnrichedEntity
	image  omdb.Image
}

// EnrichOne resolves a single entity the same way a run does without
// touching the published snapshot. A non-empty PosterRef must be freed with
// Release.
func (o *Orchestrator) EnrichOne(ctx context.Context, entity catalog.Entity) EnrichedEntity {
	res := o.resolve(ctx, entity)
	if len(res.image.Data) > 0 {
		res.entity.PosterRef = o.registry.Acquire(res.image.Data, res.image.ContentType)
	}
	return res.entity
}

func (o *Orchestrator) resolve(ctx context.Context, entity catalog.Entity) resolved {
	ctx = logging.WithEntityID(ctx, entity.ID)
	logger := logging.WithContext(ctx, o.logger)
	out := resolved{entity: EnrichedEntity{Entity: entity}}

	year, _ := entity.Year()
	// Unreleased titles use fresh cache only and never reach OMDb.
	remote := !entity.Unreleased() && o.source != nil

	rec := o.loadMetadata(ctx, logger, entity.ID)
	switch {
	case o.policy.MetadataFresh(rec):
		applyRecord(&out.entity, rec)
	case remote:
		if meta, ok := o.source.FetchMetadata(ctx, entity.Title, year); ok {
			applyMetadata(&out.entity, meta)
			o.saveMetadata(ctx, logger, out.entity)
		}
	}

	key := store.PosterKey(entity.Title, year)
	poster := o.loadPoster(ctx, logger, key)
	switch {
	case o.policy.PosterFresh(poster):
		out.image = omdb.Image{Data: poster.Image, ContentType: poster.ContentType}
		out.entity.CachedPoster = true
	case remote && out.entity.PosterURL != "":
		if img, ok := o.source.FetchImage(ctx, out.entity.PosterURL); ok && len(img.Data) > 0 {
			out.image = img
			o.savePoster(ctx, logger, store.PosterRecord{
				Key:         key,
				EntityID:    entity.ID,
				Title:       entity.Title,
				Year:        year,
				Image:       img.Data,
				ContentType: img.ContentType,
				Timestamp:   o.now(),
			})
		}
	}

	logger.Debug("entity resolved",
		logging.Bool("metadata", out.entity.HasMetadata()),
		logging.Bool("poster", len(out.image.Data) > 0),
		logging.Bool("cached_poster", out.entity.CachedPoster),
	)
	return out
}

func (o *Orchestrator) loadMetadata(ctx context.Context, logger *slog.Logger, id int) *store.MetadataRecord {
	if o.cache == nil {
		return nil
	}
	rec, err := o.cache.GetMetadata(ctx, id)
	if err != nil {
		o.storageWarning(logger, "metadata cache read failed; treating as miss", err)
		return nil
	}
	return rec
}

func (o *Orchestrator) saveMetadata(ctx context.Context, logger *slog.Logger, entity EnrichedEntity) {
	if o.cache == nil {
		return
	}
	_, err := o.cache.PutMetadata(ctx, store.MetadataRecord{
		EntityID:    entity.ID,
		Plot:        entity.Plot,
		Director:    entity.Director,
		Actors:      entity.Actors,
		Rating:      entity.Rating,
		Runtime:     entity.Runtime,
		Genre:       entity.Genre,
		Awards:      entity.Awards,
		BoxOffice:   entity.BoxOffice,
		PosterURL:   entity.PosterURL,
		LastUpdated: o.now(),
	})
	if err != nil {
		o.storageWarning(logger, "metadata cache write failed", err)
	}
}

func (o *Orchestrator) loadPoster(ctx context.Context, logger *slog.Logger, key string) *store.PosterRecord {
	if o.cache == nil {
		return nil
	}
	rec, err := o.cache.GetPoster(ctx, key)
	if err != nil {
		o.storageWarning(logger, "poster cache read failed; treating as miss", err, logging.String("key", key))
		return nil
	}
	return rec
}

func (o *Orchestrator) savePoster(ctx context.Context, logger *slog.Logger, rec store.PosterRecord) {
	if o.cache == nil {
		return
	}
	if err := o.cache.PutPoster(ctx, rec); err != nil {
		o.storageWarning(logger, "poster cache write failed", err, logging.String("key", rec.Key))
	}
}

func (o *Orchestrator) storageWarning(logger *slog.Logger, msg string, err error, attrs ...logging.Attr) {
	logging.WarnWithContext(logger, msg, "cache_storage_error", append(attrs,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run 'marquee cache stats' and check free space in paths.data_dir"),
		logging.String(logging.FieldImpact, "movie served without cached data"),
	)...)
}

func applyRecord(dst *EnrichedEntity, rec *store.MetadataRecord) {
	dst.Plot = rec.Plot
	dst.Director = rec.Director
	dst.Actors = rec.Actors
	dst.Rating = rec.Rating
	dst.Runtime = rec.Runtime
	dst.Genre = rec.Genre
	dst.Awards = rec.Awards
	dst.BoxOffice = rec.BoxOffice
	dst.PosterURL = rec.PosterURL
}

func applyMetadata(dst *EnrichedEntity, meta *omdb.Metadata) {
	dst.Plot = meta.Plot
	dst.Director = meta.Director
	dst.Actors = meta.Actors
	dst.Rating = meta.Rating
	dst.Runtime = meta.Runtime
	dst.Genre = meta.Genre
	dst.Awards = meta.Awards
	dst.BoxOffice = meta.BoxOffice
	dst.PosterURL = meta.PosterURL
}
