// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"go.uber.org/zap"

	"gioui.org/dnd/io/transfer"
)

// sourceLogger logs the progress of the outgoing drag.
type sourceLogger struct {
	log *zap.Logger
}

func (l sourceLogger) event(name string, e transfer.DragEvent) {
	l.log.Info(name,
		zap.Stringer("user", e.UserAction),
		zap.Stringer("target", e.TargetActions),
		zap.Stringer("action", e.Action()),
		zap.Stringer("pos", e.Position))
}

func (l sourceLogger) DragEnter(e transfer.DragEvent)         { l.event("source enter", e) }
func (l sourceLogger) DragOver(e transfer.DragEvent)          { l.event("source over", e) }
func (l sourceLogger) DropActionChanged(e transfer.DragEvent) { l.event("source action changed", e) }
func (l sourceLogger) DragExit(e transfer.DragEvent)          { l.event("source exit", e) }

func (l sourceLogger) DragDropEnd(e transfer.DropEndEvent) {
	l.log.Info("source drop end", zap.Bool("success", e.Success), zap.Stringer("action", e.Action))
}

// dropper accepts drags with accept and prints the data dropped.
type dropper struct {
	log    *zap.Logger
	accept transfer.Action
	// dropped receives the value read on drop.
	dropped chan interface{}
}

func (d *dropper) DragEnter(e transfer.TargetEvent) {
	d.respond("target enter", e)
}

func (d *dropper) DragOver(e transfer.TargetEvent) {
	d.respond("target over", e)
}

func (d *dropper) DropActionChanged(e transfer.TargetEvent) {
	d.respond("target action changed", e)
}

func (d *dropper) respond(name string, e transfer.TargetEvent) {
	d.log.Info(name, zap.Stringer("action", e.Action), zap.Stringer("source", e.SourceActions))
	if e.SourceActions&d.accept == transfer.ActionNone {
		if err := e.Context.RejectDrag(); err != nil {
			d.log.Error("reject drag", zap.Error(err))
		}
		return
	}
	if err := e.Context.AcceptDrag(d.accept); err != nil {
		d.log.Error("accept drag", zap.Error(err))
	}
}

func (d *dropper) DragExit(ctx transfer.DropContext) {
	d.log.Info("target exit")
}

func (d *dropper) Drop(e transfer.DropEvent) {
	d.log.Info("target drop", zap.Bool("local", e.Local), zap.Strings("formats", e.Context.Formats()))
	formats := e.Context.Formats()
	if len(formats) == 0 || e.SourceActions&d.accept == transfer.ActionNone {
		if err := e.Context.RejectDrop(); err != nil {
			d.log.Error("reject drop", zap.Error(err))
		}
		return
	}
	if err := e.Context.AcceptDrop(d.accept); err != nil {
		d.log.Error("accept drop", zap.Error(err))
		return
	}
	v, err := e.Context.Data(formats[0])
	if err != nil {
		d.log.Error("read dropped data", zap.String("format", formats[0]), zap.Error(err))
		if err := e.Context.DropComplete(false); err != nil {
			d.log.Error("complete drop", zap.Error(err))
		}
		return
	}
	d.dropped <- v
	if err := e.Context.DropComplete(true); err != nil {
		d.log.Error("complete drop", zap.Error(err))
	}
}
