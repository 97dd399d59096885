package goldprice

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/metrics"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

var (
	// ErrAllSourcesExhausted means every adapter failed this cycle. The
	// cached snapshot group is left untouched and keeps serving.
	ErrAllSourcesExhausted = errors.New("all gold price sources exhausted")

	// ErrRefreshInProgress means a refresh was skipped because another one
	// is still outstanding. Ticks never overlap.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrAlreadyRunning means Start was called while the loop is active.
	ErrAlreadyRunning = errors.New("auto refresh already running")

	// ErrNotRunning means Stop was called without an active loop.
	ErrNotRunning = errors.New("auto refresh not running")
)

// SnapshotStore persists the latest snapshot per tier. It is best-effort
// durability behind the in-memory cache, not the source of truth for serving.
type SnapshotStore interface {
	UpsertGroup(ctx context.Context, snapshots []models.PriceSnapshot) error
}

// PricePublisher announces refreshed prices to downstream consumers.
type PricePublisher interface {
	PublishPricesUpdated(ctx context.Context, group models.SnapshotGroup) error
}

// refreshBudget caps one refresh cycle across all sources.
const refreshBudget = 2 * time.Minute

// Engine owns the authoritative in-memory snapshot group and the periodic
// refresh loop. Reads never block on network I/O: a refresh fetches first
// and only locks to swap the whole tier group.
type Engine struct {
	sources   []Source
	converter Converter
	store     SnapshotStore
	publisher PricePublisher
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current models.SnapshotGroup

	// refreshMu serializes refreshes; an outstanding refresh makes the
	// next tick a no-op instead of queueing.
	refreshMu sync.Mutex

	loopMu     sync.Mutex
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// Defaults are the manually configured startup prices served until the
// first successful refresh.
type Defaults struct {
	Currency string
	Prices   map[models.Karat]float64
}

// NewEngine creates an engine seeded with the startup defaults tagged
// stale-default. store and publisher may be nil.
func NewEngine(sources []Source, converter Converter, defaults Defaults, store SnapshotStore, publisher PricePublisher, logger *zap.Logger) *Engine {
	e := &Engine{
		sources:   sources,
		converter: converter,
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		current:   make(models.SnapshotGroup, len(models.Karats)),
	}

	observed := e.now().UTC()
	for _, k := range models.Karats {
		e.current[k] = models.PriceSnapshot{
			Karat:        k,
			PricePerGram: defaults.Prices[k],
			Currency:     defaults.Currency,
			Source:       models.PriceSourceStaleDefault,
			ObservedAt:   observed,
		}
		metrics.GoldPricePerGram.WithLabelValues(string(k)).Set(defaults.Prices[k])
	}
	return e
}

// Current returns a copy of the latest snapshot group. It never fetches and
// always has a value for every tier.
func (e *Engine) Current() models.SnapshotGroup {
	e.mu.RLock()
	defer e.mu.RUnlock()

	group := make(models.SnapshotGroup, len(e.current))
	for k, snap := range e.current {
		group[k] = snap
	}
	return group
}

// RefreshOnce tries each source in priority order, converts the first
// successful quote for all three tiers, and atomically replaces the cached
// group. On total failure the cache is left exactly as it was. Persistence
// and event publication are best-effort and never roll back the cache.
func (e *Engine) RefreshOnce(ctx context.Context) (models.SnapshotGroup, error) {
	if !e.refreshMu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer e.refreshMu.Unlock()

	started := e.now()

	for i, source := range e.sources {
		quote, err := source.FetchSpot(ctx)
		if err != nil {
			e.logger.Warn("gold price source failed, trying next",
				zap.String("source", source.Name()),
				zap.Error(err),
			)
			metrics.PriceSourceFailures.WithLabelValues(source.Name(), failKind(err)).Inc()
			continue
		}

		tag := models.PriceSourceLive
		if i > 0 {
			tag = models.PriceSourceFallback
		}

		group := e.apply(quote, tag)
		e.logger.Info("gold prices refreshed",
			zap.String("source", source.Name()),
			zap.String("tag", string(tag)),
			zap.Float64("spot_usd_per_ounce", quote.USDPerOunce),
			zap.Float64("price_24k", group[models.Karat24].PricePerGram),
		)
		metrics.PriceRefreshTotal.WithLabelValues("success", string(tag)).Inc()
		metrics.PriceRefreshDuration.Observe(e.now().Sub(started).Seconds())

		e.persist(ctx, group)
		e.announce(ctx, group)
		return group, nil
	}

	metrics.PriceRefreshTotal.WithLabelValues("exhausted", "").Inc()
	return nil, ErrAllSourcesExhausted
}

// apply converts the quote and swaps the whole tier group under the lock.
// The swap is the only critical section; no network I/O happens under it.
func (e *Engine) apply(quote SpotQuote, tag models.PriceSource) models.SnapshotGroup {
	prices := e.converter.Convert(quote.USDPerOunce)
	observed := e.now().UTC()

	group := make(models.SnapshotGroup, len(prices))
	for k, price := range prices {
		group[k] = models.PriceSnapshot{
			Karat:        k,
			PricePerGram: price,
			Currency:     e.converter.Currency,
			Source:       tag,
			ObservedAt:   observed,
		}
	}

	e.mu.Lock()
	e.current = group
	e.mu.Unlock()

	for k, snap := range group {
		metrics.GoldPricePerGram.WithLabelValues(string(k)).Set(snap.PricePerGram)
	}
	return e.copyOf(group)
}

// SetManual records an admin-entered price for one tier in both the cache
// and the durable store. The cache is updated even when the store write
// fails; the error is returned so the caller knows durability lagged.
func (e *Engine) SetManual(ctx context.Context, karat models.Karat, pricePerGram float64) (models.PriceSnapshot, error) {
	snap := models.PriceSnapshot{
		Karat:        karat,
		PricePerGram: pricePerGram,
		Currency:     e.converter.Currency,
		Source:       models.PriceSourceManual,
		ObservedAt:   e.now().UTC(),
	}

	e.mu.Lock()
	e.current[karat] = snap
	e.mu.Unlock()

	metrics.GoldPricePerGram.WithLabelValues(string(karat)).Set(pricePerGram)

	if e.store != nil {
		if err := e.store.UpsertGroup(ctx, []models.PriceSnapshot{snap}); err != nil {
			e.logger.Error("failed to persist manual gold price",
				zap.String("karat", string(karat)),
				zap.Error(err),
			)
			return snap, err
		}
	}
	return snap, nil
}

// Start launches the periodic refresh loop. Each tick calls RefreshOnce;
// an overlapping tick is skipped, and periodic failures are logged but
// never propagated.
func (e *Engine) Start(interval time.Duration) error {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()

	if e.loopCancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.loopCancel = cancel
	e.loopDone = make(chan struct{})

	go e.run(ctx, interval)

	e.logger.Info("gold price auto refresh started", zap.Duration("interval", interval))
	return nil
}

// Stop cancels the loop and waits for it to exit. An in-flight fetch is
// abandoned by its own timeout rather than blocking shutdown.
func (e *Engine) Stop() error {
	e.loopMu.Lock()
	cancel, done := e.loopCancel, e.loopDone
	e.loopCancel, e.loopDone = nil, nil
	e.loopMu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-done
	e.logger.Info("gold price auto refresh stopped")
	return nil
}

// Running reports whether the periodic loop is active.
func (e *Engine) Running() bool {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()
	return e.loopCancel != nil
}

func (e *Engine) run(ctx context.Context, interval time.Duration) {
	defer close(e.loopDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, refreshBudget)
			_, err := e.RefreshOnce(tickCtx)
			cancel()

			switch {
			case err == nil:
			case errors.Is(err, ErrRefreshInProgress):
				e.logger.Warn("skipping gold price tick, refresh still running")
			case errors.Is(err, ErrAllSourcesExhausted):
				e.logger.Error("gold price refresh failed, serving stale prices")
			case ctx.Err() != nil:
				return
			default:
				e.logger.Error("gold price refresh failed", zap.Error(err))
			}
		}
	}
}

func (e *Engine) persist(ctx context.Context, group models.SnapshotGroup) {
	if e.store == nil {
		return
	}
	snapshots := make([]models.PriceSnapshot, 0, len(group))
	for _, snap := range group {
		snapshots = append(snapshots, snap)
	}
	if err := e.store.UpsertGroup(ctx, snapshots); err != nil {
		// Cache already updated; the store is durability, not serving truth.
		e.logger.Error("failed to persist gold price snapshots", zap.Error(err))
		metrics.PriceStoreFailures.Inc()
	}
}

func (e *Engine) announce(ctx context.Context, group models.SnapshotGroup) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishPricesUpdated(ctx, group); err != nil {
		e.logger.Error("failed to publish gold price event", zap.Error(err))
	}
}

func (e *Engine) copyOf(group models.SnapshotGroup) models.SnapshotGroup {
	out := make(models.SnapshotGroup, len(group))
	for k, snap := range group {
		out[k] = snap
	}
	return out
}

func failKind(err error) string {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return string(srcErr.Kind)
	}
	return "unknown"
}
