package goldprice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

type stubSource struct {
	name  string
	quote SpotQuote
	err   error

	mu    sync.Mutex
	calls int
	block chan struct{}
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchSpot(ctx context.Context) (SpotQuote, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return SpotQuote{}, ctx.Err()
		}
	}
	return s.quote, s.err
}

type stubStore struct {
	mu       sync.Mutex
	groups   [][]models.PriceSnapshot
	failWith error
}

func (s *stubStore) UpsertGroup(ctx context.Context, snapshots []models.PriceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.groups = append(s.groups, snapshots)
	return nil
}

func testDefaults() Defaults {
	return Defaults{
		Currency: "SAR",
		Prices: map[models.Karat]float64{
			models.Karat18: 185.50,
			models.Karat21: 216.25,
			models.Karat24: 247.00,
		},
	}
}

func testConverter() Converter {
	return Converter{USDRate: 3.75, Currency: "SAR"}
}

func newTestEngine(sources []Source, store SnapshotStore) *Engine {
	return NewEngine(sources, testConverter(), testDefaults(), store, nil, zap.NewNop())
}

func TestEngine_ServesDefaultsBeforeFirstRefresh(t *testing.T) {
	engine := newTestEngine(nil, nil)

	group := engine.Current()
	require.Len(t, group, 3)
	for _, k := range models.Karats {
		snap := group[k]
		assert.Equal(t, models.PriceSourceStaleDefault, snap.Source)
		assert.Equal(t, "SAR", snap.Currency)
	}
	assert.Equal(t, 247.00, group[models.Karat24].PricePerGram)
}

func TestEngine_RefreshOnce_PrimarySuccess(t *testing.T) {
	primary := &stubSource{name: "primary", quote: SpotQuote{USDPerOunce: 2000}}
	fallback := &stubSource{name: "fallback", quote: SpotQuote{USDPerOunce: 1000}}
	store := &stubStore{}
	engine := newTestEngine([]Source{primary, fallback}, store)

	group, err := engine.RefreshOnce(context.Background())
	require.NoError(t, err)

	for _, k := range models.Karats {
		assert.Equal(t, models.PriceSourceLive, group[k].Source)
	}
	assert.Equal(t, 241.13, group[models.Karat24].PricePerGram)
	assert.Equal(t, 0, fallback.calls, "fallback should not be consulted")

	store.mu.Lock()
	assert.Len(t, store.groups, 1)
	store.mu.Unlock()
}

func TestEngine_RefreshOnce_FallbackTagged(t *testing.T) {
	primary := &stubSource{name: "primary", err: &SourceError{Source: "primary", Kind: FailNetwork, Err: errors.New("refused")}}
	fallback := &stubSource{name: "fallback", quote: SpotQuote{USDPerOunce: 2000}}
	engine := newTestEngine([]Source{primary, fallback}, nil)

	group, err := engine.RefreshOnce(context.Background())
	require.NoError(t, err)

	// The whole group carries the fallback tag; no mixed-source tiers.
	for _, k := range models.Karats {
		assert.Equal(t, models.PriceSourceFallback, group[k].Source)
	}
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestEngine_RefreshOnce_AllSourcesFail(t *testing.T) {
	failed := &SourceError{Source: "x", Kind: FailTimeout, Err: errors.New("deadline")}
	primary := &stubSource{name: "primary", err: failed}
	fallback := &stubSource{name: "fallback", err: failed}
	engine := newTestEngine([]Source{primary, fallback}, nil)

	before := engine.Current()
	group, err := engine.RefreshOnce(context.Background())

	assert.ErrorIs(t, err, ErrAllSourcesExhausted)
	assert.Nil(t, group)
	assert.Equal(t, before, engine.Current(), "cache must be untouched on total failure")
}

func TestEngine_RefreshOnce_StoreFailureDoesNotRollBackCache(t *testing.T) {
	primary := &stubSource{name: "primary", quote: SpotQuote{USDPerOunce: 2000}}
	store := &stubStore{failWith: errors.New("db down")}
	engine := newTestEngine([]Source{primary}, store)

	group, err := engine.RefreshOnce(context.Background())
	require.NoError(t, err, "persistence is best-effort")

	assert.Equal(t, models.PriceSourceLive, group[models.Karat24].Source)
	assert.Equal(t, group[models.Karat24], engine.Current()[models.Karat24])
}

func TestEngine_RefreshOnce_SkipsWhenInProgress(t *testing.T) {
	block := make(chan struct{})
	primary := &stubSource{name: "primary", quote: SpotQuote{USDPerOunce: 2000}, block: block}
	engine := newTestEngine([]Source{primary}, nil)

	firstDone := make(chan error, 1)
	go func() {
		_, err := engine.RefreshOnce(context.Background())
		firstDone <- err
	}()

	// Wait until the first refresh holds the lock inside FetchSpot.
	require.Eventually(t, func() bool {
		primary.mu.Lock()
		defer primary.mu.Unlock()
		return primary.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := engine.RefreshOnce(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(block)
	require.NoError(t, <-firstDone)
}

func TestEngine_SetManual(t *testing.T) {
	store := &stubStore{}
	engine := newTestEngine(nil, store)

	snap, err := engine.SetManual(context.Background(), models.Karat21, 219.99)
	require.NoError(t, err)
	assert.Equal(t, models.PriceSourceManual, snap.Source)

	current := engine.Current()
	assert.Equal(t, 219.99, current[models.Karat21].PricePerGram)
	// Other tiers keep their previous snapshots.
	assert.Equal(t, models.PriceSourceStaleDefault, current[models.Karat24].Source)
}

func TestEngine_SetManual_StoreFailureKeepsCache(t *testing.T) {
	store := &stubStore{failWith: errors.New("db down")}
	engine := newTestEngine(nil, store)

	_, err := engine.SetManual(context.Background(), models.Karat18, 190.00)
	require.Error(t, err)
	assert.Equal(t, 190.00, engine.Current()[models.Karat18].PricePerGram)
}

func TestEngine_StartStop(t *testing.T) {
	primary := &stubSource{name: "primary", quote: SpotQuote{USDPerOunce: 2000}}
	engine := newTestEngine([]Source{primary}, nil)

	require.NoError(t, engine.Start(10*time.Millisecond))
	assert.True(t, engine.Running())
	assert.ErrorIs(t, engine.Start(10*time.Millisecond), ErrAlreadyRunning)

	require.Eventually(t, func() bool {
		primary.mu.Lock()
		defer primary.mu.Unlock()
		return primary.calls >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, engine.Stop())
	assert.False(t, engine.Running())
	assert.ErrorIs(t, engine.Stop(), ErrNotRunning)
}
