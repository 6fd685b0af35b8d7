// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoopOrder(t *testing.T) {
	l := newTestLoop(t)
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.True(t, l.Run(func() {}))
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopPostFromLoop(t *testing.T) {
	l := newTestLoop(t)
	done := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(done) })
	})
	waitClosed(t, done)
}

func TestLoopSurvivesPanic(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := newTestLoop(t, WithLogger(zap.New(core)))
	l.Post(func() { panic("boom") })
	ran := false
	require.True(t, l.Run(func() { ran = true }))
	assert.True(t, ran)
	require.Equal(t, 1, logs.FilterMessage("loop function panicked").Len())
}

func TestLoopClose(t *testing.T) {
	l := NewLoop()
	release := blockLoop(t, l)
	ran := false
	require.True(t, l.Post(func() { ran = true }))
	l.Close()
	release()
	waitClosed(t, l.Stopped())
	waitClosed(t, l.Dead())
	assert.False(t, ran, "pending function ran after Close")
	assert.False(t, l.Post(func() {}))
	assert.False(t, l.Run(func() {}))
}
