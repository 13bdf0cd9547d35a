package enrichment

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/display"
	"marquee/internal/logging"
	"marquee/internal/retention"
	"marquee/internal/store"
)

const defaultBatchSize = 10

// Options tunes an Orchestrator.
type Options struct {
	BatchSize  int
	BatchDelay time.Duration
	MaxPosters int
	Policy     retention.Policy
	Registry   *display.Registry
	Logger     *slog.Logger
	Now        func() time.Time
}

// OptionsFromConfig maps the enrichment section of cfg onto Options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		BatchSize:  cfg.Enrichment.BatchSize,
		BatchDelay: cfg.BatchDelay(),
		MaxPosters: cfg.Enrichment.MaxPosters,
		Policy:     retention.NewPolicy(cfg),
		Logger:     logger,
	}
}

type runToken struct {
	id         string
	generation uint64
	progress   atomic.Int32
}

// Orchestrator runs enrichment over a catalog and owns the published result.
type Orchestrator struct {
	cache      Cache
	source     Source
	pruner     *retention.Pruner
	policy     retention.Policy
	registry   *display.Registry
	logger     *slog.Logger
	batchSize  int
	batchDelay time.Duration
	maxPosters int
	now        func() time.Time
	sampler    *logging.ProgressSampler

	current atomic.Pointer[runToken]
	wg      sync.WaitGroup

	mu          sync.Mutex
	generation  uint64
	snapshot    []EnrichedEntity
	refs        []display.Ref
	publishedID string
	publishedAt time.Time
}

// New builds an Orchestrator. A nil cache runs without persistence: every
// lookup is a miss and nothing is written.
func New(cache Cache, source Source, opts Options) *Orchestrator {
	if st, ok := cache.(*store.Store); ok && st == nil {
		cache = nil
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Registry == nil {
		opts.Registry = display.NewRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy.Now == nil {
		opts.Policy.Now = opts.Now
	}
	logger := logging.NewComponentLogger(opts.Logger, "enrichment")
	var pruner *retention.Pruner
	if cache != nil {
		pruner = retention.NewPruner(cache, opts.Logger)
	}
	return &Orchestrator{
		cache:      cache,
		source:     source,
		pruner:     pruner,
		policy:     opts.Policy,
		registry:   opts.Registry,
		logger:     logger,
		batchSize:  opts.BatchSize,
		batchDelay: opts.BatchDelay,
		maxPosters: opts.MaxPosters,
		now:        opts.Now,
		sampler:    logging.NewProgressSampler(10),
	}
}

// Run enriches base and publishes the result. It returns ErrRunInFlight
// without doing anything while another run is active, and ErrSuperseded if
// Restart replaced it before it finished.
func (o *Orchestrator) Run(ctx context.Context, base []catalog.Entity) ([]EnrichedEntity, error) {
	tok, err := o.begin(false)
	if err != nil {
		return nil, err
	}
	return o.execute(ctx, tok, base)
}

// Restart discards the published snapshot, supersedes any active run and
// starts a fresh run in the background. It returns the new run id.
func (o *Orchestrator) Restart(ctx context.Context, base []catalog.Entity) string {
	tok, _ := o.begin(true)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_, _ = o.execute(ctx, tok, base)
	}()
	return tok.id
}

// Watch starts a run and restarts it on every signal from restored until ctx
// ends. It waits for background runs before returning ctx.Err().
func (o *Orchestrator) Watch(ctx context.Context, base []catalog.Entity, restored <-chan struct{}) error {
	if tok, err := o.begin(false); err == nil {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			_, _ = o.execute(ctx, tok, base)
		}()
	} else {
		o.logger.Info("initial run skipped", logging.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			o.wg.Wait()
			return ctx.Err()
		case _, ok := <-restored:
			if !ok {
				restored = nil
				continue
			}
			runID := o.Restart(ctx, base)
			o.logger.Info("connectivity restored; restarting enrichment",
				logging.String(logging.FieldEventType, "run_restarted"),
				logging.String(logging.FieldRunID, runID),
			)
		}
	}
}

// View returns the published snapshot and the state of the active run.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	view := View{
		Entities:    append([]EnrichedEntity(nil), o.snapshot...),
		RunID:       o.publishedID,
		PublishedAt: o.publishedAt,
	}
	if tok := o.current.Load(); tok != nil {
		view.Loading = true
		view.RunID = tok.id
		view.Progress = int(tok.progress.Load())
	} else if !o.publishedAt.IsZero() {
		view.Progress = 100
	}
	return view
}

// Poster returns the bytes behind a display reference.
func (o *Orchestrator) Poster(ref display.Ref) ([]byte, string, bool) {
	return o.registry.Open(ref)
}

// Release frees a reference returned by EnrichOne.
func (o *Orchestrator) Release(ref display.Ref) {
	o.registry.Release(ref)
}

// Close waits for background runs and releases the published references.
func (o *Orchestrator) Close() {
	o.wg.Wait()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry.ReleaseAll(o.refs)
	o.refs = nil
	o.snapshot = nil
}

func (o *Orchestrator) begin(supersede bool) (*runToken, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !supersede && o.current.Load() != nil {
		return nil, ErrRunInFlight
	}
	o.generation++
	tok := &runToken{id: uuid.NewString(), generation: o.generation}
	if prev := o.current.Swap(tok); prev != nil {
		o.logger.Info("superseding active run",
			logging.String("superseded_run_id", prev.id),
			logging.String(logging.FieldRunID, tok.id),
		)
	}
	if supersede {
		o.registry.ReleaseAll(o.refs)
		o.refs = nil
		o.snapshot = nil
		o.publishedAt = time.Time{}
		o.publishedID = ""
	}
	return tok, nil
}

func (o *Orchestrator) execute(ctx context.Context, tok *runToken, base []catalog.Entity) ([]EnrichedEntity, error) {
	ctx = logging.WithRunID(ctx, tok.id)
	logger := logging.WithContext(ctx, o.logger)
	started := o.now()
	logger.Info("enrichment run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.Int("entities", len(base)),
		logging.Int("batch_size", o.batchSize),
		logging.Int64("generation", int64(tok.generation)),
	)

	if o.pruner != nil {
		o.pruner.Prune(ctx, o.maxPosters)
	}

	results := make([]resolved, len(base))
	var runErr error
	for start := 0; start < len(base); start += o.batchSize {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		end := min(start+o.batchSize, len(base))

		var group errgroup.Group
		for i := start; i < end; i++ {
			group.Go(func() error {
				results[i] = o.resolve(ctx, base[i])
				return nil
			})
		}
		_ = group.Wait()

		percent := progressPercent(end, len(base))
		tok.progress.Store(int32(percent))
		o.logProgress(logger, tok, percent, end, len(base))

		if end < len(base) && o.batchDelay > 0 {
			if err := sleep(ctx, o.batchDelay); err != nil {
				runErr = err
				break
			}
		}
	}
	if len(base) == 0 {
		tok.progress.Store(100)
	}

	return o.finish(logger, tok, results, started, runErr)
}

func (o *Orchestrator) finish(logger *slog.Logger, tok *runToken, results []resolved, started time.Time, runErr error) ([]EnrichedEntity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.current.CompareAndSwap(tok, nil) {
		logger.Info("superseded run finished; results dropped",
			logging.String(logging.FieldEventType, "run_superseded"),
		)
		return nil, ErrSuperseded
	}
	if runErr != nil {
		logger.Info("enrichment run aborted",
			logging.String(logging.FieldEventType, "run_aborted"),
			logging.Error(runErr),
		)
		return nil, runErr
	}

	o.registry.ReleaseAll(o.refs)
	entities := make([]EnrichedEntity, len(results))
	refs := make([]display.Ref, 0, len(results))
	var fromCache, posters int
	for i, res := range results {
		entity := res.entity
		if len(res.image.Data) > 0 {
			entity.PosterRef = o.registry.Acquire(res.image.Data, res.image.ContentType)
			refs = append(refs, entity.PosterRef)
			posters++
		}
		if entity.CachedPoster {
			fromCache++
		}
		entities[i] = entity
	}
	o.snapshot = entities
	o.refs = refs
	o.publishedID = tok.id
	o.publishedAt = o.now()

	logger.Info("enrichment run published",
		logging.String(logging.FieldEventType, "run_published"),
		logging.Int("entities", len(entities)),
		logging.Int("posters", posters),
		logging.Int("cached_posters", fromCache),
		logging.Duration("elapsed", o.now().Sub(started)),
	)
	return append([]EnrichedEntity(nil), entities...), nil
}

func (o *Orchestrator) logProgress(logger *slog.Logger, tok *runToken, percent, done, total int) {
	if !o.sampler.ShouldLog(float64(percent), tok.id) {
		return
	}
	logger.Info("enrichment progress",
		logging.String(logging.FieldEventType, "run_progress"),
		logging.Int(logging.FieldProgressPercent, percent),
		logging.Int("processed", done),
		logging.Int("total", total),
	)
}

// progressPercent is the share of processed entities, rounded and capped at
// 100. An empty catalog counts as done.
func progressPercent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return min(100, int(math.Round(float64(done)/float64(total)*100)))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
