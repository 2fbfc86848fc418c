package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalEngine/internal/domain/models"
)

type capturedMessage struct {
	topic string
	key   []byte
	value interface{}
}

type producerStub struct {
	sent   []capturedMessage
	closed bool
}

func (p *producerStub) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.sent = append(p.sent, capturedMessage{topic, key, value})
	return nil
}

func (p *producerStub) Close() error { p.closed = true; return nil }

func TestKafkaPublisher_Envelope(t *testing.T) {
	stub := &producerStub{}
	pub := NewKafkaPublisher(stub, "signals.analysis")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	pub.now = func() time.Time { return at }

	a := &models.AssetAnalysis{Symbol: "BTC", Confidence: 71.5}
	require.NoError(t, pub.Publish(context.Background(), a))
	require.NoError(t, pub.Publish(context.Background(), a))
	require.NoError(t, pub.Publish(context.Background(), nil))

	require.Len(t, stub.sent, 2)
	msg := stub.sent[0]
	assert.Equal(t, "signals.analysis", msg.topic)
	assert.Equal(t, []byte("BTC"), msg.key)

	ev, ok := msg.value.(AnalysisEvent)
	require.True(t, ok)
	assert.Equal(t, "BTC", ev.Symbol)
	assert.Equal(t, analysisEventType, ev.Type)
	assert.Equal(t, at, ev.ProducedAt)
	assert.Same(t, a, ev.Analysis)
	_, err := uuid.Parse(ev.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, ev.ID, stub.sent[1].value.(AnalysisEvent).ID)

	require.NoError(t, pub.Close())
	assert.True(t, stub.closed)
}
