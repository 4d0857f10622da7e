package readiness

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureResolvesOnce(t *testing.T) {
	f := NewFuture[string]()
	assert.False(t, f.Ready())
	_, ok, _ := f.Peek()
	assert.False(t, ok)

	assert.True(t, f.Resolve("first", nil))
	assert.False(t, f.Resolve("second", errors.New("late")))

	value, ok, err := f.Peek()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "first", value)
	assert.True(t, f.Ready())
}

func TestFutureResolvedWithErrorIsNotReady(t *testing.T) {
	f := NewFuture[int]()
	f.Resolve(0, errors.New("missing client id"))

	assert.True(t, f.Resolved())
	assert.False(t, f.Ready())
	_, err := f.Wait(context.Background())
	require.EqualError(t, err, "missing client id")
}

func TestFutureWaitHonoursContext(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoaderRunsLoadOnce(t *testing.T) {
	var calls atomic.Int32
	l := NewLoader[string]()
	load := func(context.Context) (string, error) {
		calls.Add(1)
		return "loaded", nil
	}

	l.Start(context.Background(), load)
	l.Start(context.Background(), load)

	value, err := l.Future().Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "loaded", value)
	assert.Equal(t, int32(1), calls.Load())
}
