// SPDX-License-Identifier: Unlicense OR MIT

package gate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestOpenBeforeWait(t *testing.T) {
	g := New()
	assert.False(t, g.Done())
	assert.True(t, g.Open())
	assert.False(t, g.Open(), "second Open must report the gate was already open")
	assert.True(t, g.Done())
	// Must not block.
	require.NoError(t, g.Wait(context.Background()))
}

func TestWaitThenOpen(t *testing.T) {
	g := New()
	var eg errgroup.Group
	const waiters = 4
	for i := 0; i < waiters; i++ {
		eg.Go(func() error {
			return g.Wait(context.Background())
		})
	}
	time.Sleep(10 * time.Millisecond)
	g.Open()
	require.NoError(t, eg.Wait())
}

func TestWaitContext(t *testing.T) {
	g := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, g.Done())
}

func TestWaitPump(t *testing.T) {
	g := New()
	var pumps int32
	go func() {
		for atomic.LoadInt32(&pumps) < 3 {
			time.Sleep(time.Millisecond)
		}
		g.Open()
	}()
	err := g.WaitPump(context.Background(), time.Millisecond, func() {
		atomic.AddInt32(&pumps, 1)
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&pumps), int32(3))

	// An open gate never pumps.
	called := false
	require.NoError(t, g.WaitPump(context.Background(), time.Millisecond, func() { called = true }))
	assert.False(t, called)
}
