// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"context"
	"image"

	"go.uber.org/zap"

	"gioui.org/dnd/internal/dispatch"
	"gioui.org/dnd/io/transfer"
)

// route is one stop of a notification on the loop.
type route func(u *dispatch.Unit)

// notifier posts notifications to a loop and waits for them on behalf
// of native callbacks.
type notifier struct {
	cnf  Config
	loop *Loop
	log  *zap.Logger
}

// post delivers the notification of d to every route in order, one
// Unit per route. Every Unit is registered before the first is posted,
// so the notification can't complete early. If the loop is closed the
// notification is completed without delivery and post reports false.
func (n *notifier) post(d *dispatch.Dispatcher, kind transfer.Kind, pos image.Point, payload interface{}, routes ...route) bool {
	if len(routes) == 0 {
		d.UnregisterAll()
		return true
	}
	units := make([]*dispatch.Unit, len(routes))
	units[0] = d.NewUnit(kind, pos, payload)
	for i := 1; i < len(routes); i++ {
		units[i] = units[0].Copy()
	}
	for i, r := range routes {
		u, r := units[i], r
		ok := n.loop.Post(func() {
			defer u.Deliver()
			// An abandoned notification reaches neither listeners nor
			// the engine.
			if d.Done() {
				return
			}
			r(u)
		})
		if !ok {
			n.log.Debug("loop closed, dropping notification", zap.Stringer("kind", kind))
			d.UnregisterAll()
			return false
		}
	}
	return true
}

// await blocks until d is delivered. It reports false if the wait was
// abandoned because it timed out or the loop closed, after completing d.
// Routes of a completed d that have not started yet are skipped.
func (n *notifier) await(d *dispatch.Dispatcher, kind transfer.Kind) bool {
	ctx := n.loop.ctx
	if n.cnf.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cnf.WaitTimeout)
		defer cancel()
	}
	if err := d.WaitPump(ctx, n.cnf.PumpInterval, n.cnf.Pump); err != nil {
		d.UnregisterAll()
		n.log.Warn("native wait abandoned", zap.Stringer("kind", kind), zap.Error(err))
		return false
	}
	return true
}

// recoverListener logs a panicking listener callback and reports it to
// fault. It must be deferred directly.
func (n *notifier) recoverListener(callback string, fault func(err error)) {
	if r := recover(); r != nil {
		err := &transfer.ListenerError{Callback: callback, Value: r}
		n.log.Warn("listener panicked", zap.String("callback", callback), zap.Error(err))
		if fault != nil {
			fault(err)
		}
	}
}
