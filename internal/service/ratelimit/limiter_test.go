package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	l := New(0.001, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("a"), "token %d", i)
	}
	assert.False(t, l.Allow("a"))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := New(0.001, 1)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.Len())
}

func TestWait_RespectsContext(t *testing.T) {
	l := New(0.001, 1)
	require.NoError(t, l.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "k"))
}

func TestNew_ClampsBurst(t *testing.T) {
	l := New(1, 0)
	assert.True(t, l.Allow("k"))
}
