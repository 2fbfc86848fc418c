package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { w.closed = true; return nil }

func TestPublish_EncodesValues(t *testing.T) {
	w := &fakeWriter{}
	reg := prometheus.NewRegistry()
	p := newProducer(w, "snappy", reg)

	require.NoError(t, p.Publish(context.Background(), "t", []byte("BTC"), map[string]int{"a": 1}))
	require.NoError(t, p.Publish(context.Background(), "t", []byte("ETH"), "raw"))
	require.NoError(t, p.Publish(context.Background(), "t", nil, []byte{0x1}))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "t", w.msgs[0].Topic)
	assert.Equal(t, []byte("BTC"), w.msgs[0].Key)
	assert.JSONEq(t, `{"a":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
	assert.Equal(t, []byte{0x1}, w.msgs[2].Value)

	assert.Equal(t, 3.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("t", "snappy", "ok")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublish_ReportsWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, "snappy", prometheus.NewRegistry())

	err := p.Publish(context.Background(), "t", nil, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, w.err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("t", "snappy", "error")))

	err = p.Publish(context.Background(), "t", nil, func() {})
	assert.Error(t, err)
}

func TestMetrics_ReuseRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newProducer(&fakeWriter{}, "gzip", reg)
	b := newProducer(&fakeWriter{}, "gzip", reg)
	assert.Same(t, a.metrics.msgs, b.metrics.msgs)
}

func TestNewProducer(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithRegisterer(prometheus.NewRegistry()), WithCompression("zstd"))
	require.NoError(t, err)
	assert.Equal(t, kafka.Zstd, p.writer.(*kafka.Writer).Compression)
	assert.NoError(t, p.Close())
}
