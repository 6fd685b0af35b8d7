// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gioui.org/dnd/io/transfer"
)

// Loop is a UI execution context. It runs posted functions on a
// single goroutine, one at a time and in post order.
type Loop struct {
	log *zap.Logger

	// ctx is cancelled when the loop is closed.
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	funcs []func()
	// wakeup is notified when funcs are posted.
	wakeup chan struct{}
	// stopped is closed when the loop goroutine exits.
	stopped chan struct{}
}

// NewLoop starts a Loop.
func NewLoop(opts ...Option) *Loop {
	cnf := newConfig(opts)
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		log:     cnf.Logger,
		ctx:     ctx,
		cancel:  cancel,
		wakeup:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post schedules f to run on the loop. It never blocks, and reports
// false if the loop is closed, in which case f never runs.
func (l *Loop) Post(f func()) bool {
	l.mu.Lock()
	if l.ctx.Err() != nil {
		l.mu.Unlock()
		return false
	}
	l.funcs = append(l.funcs, f)
	l.mu.Unlock()
	select {
	case l.wakeup <- struct{}{}:
	default:
	}
	return true
}

// Run f on the loop and wait for it to return or the loop to close.
// It reports whether f ran to completion. Calling Run from a function
// running on the loop deadlocks.
func (l *Loop) Run(f func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		f()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// Close stops the loop. Functions not yet started are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel()
	l.funcs = nil
}

// Dead returns a channel that is closed when the loop is closed.
func (l *Loop) Dead() <-chan struct{} {
	return l.ctx.Done()
}

// Stopped returns a channel that is closed when the loop goroutine
// has exited.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.wakeup:
		}
		for {
			f, ok := l.next()
			if !ok {
				break
			}
			l.execute(f)
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.funcs) == 0 || l.ctx.Err() != nil {
		return nil, false
	}
	f := l.funcs[0]
	l.funcs[0] = nil
	l.funcs = l.funcs[1:]
	return f, true
}

// execute runs f, recovering a panic so the loop survives it.
func (l *Loop) execute(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Warn("loop function panicked", zap.Error(&transfer.ListenerError{Callback: "loop", Value: r}))
		}
	}()
	f()
}
