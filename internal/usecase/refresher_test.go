package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalEngine/internal/domain/models"
	"SignalEngine/pkg/config"
)

type warmerStub struct {
	mu      sync.Mutex
	seen    map[string]int
	failing string
	active  atomic.Int64
	peak    atomic.Int64
}

func (w *warmerStub) Refresh(_ context.Context, symbol string) (*models.AssetAnalysis, error) {
	n := w.active.Add(1)
	defer w.active.Add(-1)
	for {
		p := w.peak.Load()
		if n <= p || w.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen == nil {
		w.seen = map[string]int{}
	}
	w.seen[symbol]++
	if symbol == w.failing {
		return nil, errors.New("upstream down")
	}
	return &models.AssetAnalysis{Symbol: symbol}, nil
}

func TestRefresherRunOnceIsolatesFailures(t *testing.T) {
	w := &warmerStub{failing: "ETH"}
	r := NewRefresher(w, config.RefreshConfig{
		Symbols: []string{"BTC", "ETH", "SOL", "ADA", "XRP"}, Interval: time.Minute, Workers: 2,
	}, nil)

	failed := r.RunOnce(context.Background())
	assert.Equal(t, 1, failed)
	for _, s := range []string{"BTC", "ETH", "SOL", "ADA", "XRP"} {
		assert.Equal(t, 1, w.seen[s], s)
	}
	assert.LessOrEqual(t, w.peak.Load(), int64(2))
}

func TestRefresherRunStopsWithContext(t *testing.T) {
	w := &warmerStub{}
	r := NewRefresher(w, config.RefreshConfig{Symbols: []string{"BTC"}, Interval: 10 * time.Millisecond, Workers: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.seen["BTC"] >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}
