package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalEngine/internal/domain/errs"
	"SignalEngine/internal/domain/models"
	domrepo "SignalEngine/internal/domain/repository"
	"SignalEngine/pkg/cache"
)

func newService(f MarketDataFetcher, pub *publisherStub, ttl time.Duration) *AnalysisService {
	c := cache.NewLoader[*models.AssetAnalysis]("analysis", cache.WithLayeredTTL(ttl), cache.WithLayeredMemorySize(16))
	var p domrepo.AnalysisPublisher
	if pub != nil {
		p = pub
	}
	return NewAnalysisService(f, newAnalyzer(), c, p, nil, nil)
}

func TestGetCachedSingleFlight(t *testing.T) {
	f := &stubFetcher{data: rallyMarket(), block: make(chan struct{})}
	pub := &publisherStub{}
	svc := newService(f, pub, time.Minute)

	const callers = 20
	results := make([]*models.AssetAnalysis, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := svc.GetCached(context.Background(), "btc")
			assert.NoError(t, err)
			results[i] = a
		}(i)
	}
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.block)
	wg.Wait()

	assert.Equal(t, int64(1), f.calls.Load())
	for _, a := range results {
		assert.Same(t, results[0], a)
	}
	assert.Equal(t, 1, pub.count())
}

func TestGetCachedRecomputesAfterExpiry(t *testing.T) {
	f := &stubFetcher{data: rallyMarket()}
	svc := newService(f, nil, 50*time.Millisecond)

	first, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)

	changed := rallyMarket()
	changed.Snapshot.Change24h = 2
	changed.Snapshot.Price *= 1.01
	f.set(changed)

	again, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Same(t, first, again)

	time.Sleep(60 * time.Millisecond)
	fresh, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.NotEqual(t, first.Snapshot.Price, fresh.Snapshot.Price)
	assert.Equal(t, int64(2), f.calls.Load())
}

func TestRefreshReplacesCachedAnalysis(t *testing.T) {
	f := &stubFetcher{data: rallyMarket()}
	pub := &publisherStub{}
	svc := newService(f, pub, time.Minute)

	first, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)

	changed := rallyMarket()
	changed.Snapshot.Price *= 1.01
	f.set(changed)

	refreshed, err := svc.Refresh(context.Background(), "btc")
	require.NoError(t, err)
	assert.NotSame(t, first, refreshed)

	cached, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Same(t, refreshed, cached)
	assert.Equal(t, int64(2), f.calls.Load())
	assert.Equal(t, 2, pub.count())

	_, err = svc.Refresh(context.Background(), " ")
	var ve *errs.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestGetCachedAbandonedCallerDoesNotCancel(t *testing.T) {
	f := &stubFetcher{data: rallyMarket(), block: make(chan struct{})}
	svc := newService(f, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	abandoned := make(chan error, 1)
	go func() {
		_, err := svc.GetCached(ctx, "BTC")
		abandoned <- err
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	waiter := make(chan *models.AssetAnalysis, 1)
	go func() {
		a, err := svc.GetCached(context.Background(), "BTC")
		assert.NoError(t, err)
		waiter <- a
	}()

	cancel()
	assert.ErrorIs(t, <-abandoned, context.Canceled)
	close(f.block)

	a := <-waiter
	require.NotNil(t, a)
	assert.Equal(t, "BTC", a.Symbol)
	assert.Equal(t, int64(1), f.calls.Load())
}

func TestGetCachedErrorsAreNotCached(t *testing.T) {
	f := &stubFetcher{err: &errs.DataSourceError{Provider: "binance", Err: errors.New("502")}}
	svc := newService(f, nil, time.Minute)

	_, err := svc.GetCached(context.Background(), "BTC")
	assert.True(t, errs.IsProvider(err))

	f.mu.Lock()
	f.err = nil
	f.data = rallyMarket()
	f.mu.Unlock()
	a, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "BTC", a.Symbol)
}

func TestGetCachedSymbolsAreIsolated(t *testing.T) {
	f := &stubFetcher{data: rallyMarket()}
	svc := newService(f, nil, time.Minute)

	a, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)
	b, err := svc.GetCached(context.Background(), "ETH")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, "ETH", b.Symbol)

	_, err = svc.GetCached(context.Background(), " ")
	var ve *errs.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	f := &stubFetcher{data: rallyMarket()}
	svc := newService(f, nil, time.Minute)

	_, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background(), "btc"))
	_, err = svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.calls.Load())
}

func TestPublishFailureDoesNotFailAnalysis(t *testing.T) {
	pub := &publisherStub{err: errors.New("broker down")}
	svc := newService(&stubFetcher{data: rallyMarket()}, pub, time.Minute)

	a, err := svc.GetCached(context.Background(), "BTC")
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.Equal(t, 1, pub.count())
}
