// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"image"
	"time"

	"go.uber.org/zap"

	"gioui.org/dnd/io/transfer"
	"gioui.org/dnd/io/transfer/translate"
)

// Config describes the configuration of loops, coordinators and
// sessions.
type Config struct {
	// Logger receives lifecycle and listener fault logs.
	Logger *zap.Logger
	// WaitTimeout bounds how long a native callback waits for the UI
	// to deliver a notification. Zero means wait indefinitely, in which
	// case a UI context that never drains blocks the native thread.
	WaitTimeout time.Duration
	// Pump, if set, is called every PumpInterval while a native
	// callback waits, so the engine can keep processing its messages.
	Pump         func()
	PumpInterval time.Duration
	// TargetActions is the set of actions a drop target supports.
	TargetActions transfer.Action
	// Translator converts native payloads for cross-process drops.
	Translator transfer.Translator
	// DataPermission, if set, is consulted before data is read from a
	// drag that is not being dropped.
	DataPermission func(format string) error
	// MaxDragImageSize bounds the drag image handed to the native
	// engine. Larger images are scaled down.
	MaxDragImageSize image.Point
}

// Option configures a Loop, Coordinator or session.
type Option func(*Config)

func newConfig(opts []Option) Config {
	cnf := Config{
		Logger:           zap.NewNop(),
		PumpInterval:     10 * time.Millisecond,
		TargetActions:    transfer.ActionAll,
		MaxDragImageSize: image.Pt(256, 256),
	}
	cnf.apply(opts)
	if cnf.Logger == nil {
		cnf.Logger = zap.NewNop()
	}
	if cnf.Translator == nil {
		cnf.Translator = translate.New()
	}
	return cnf
}

func (c *Config) apply(opts []Option) {
	for _, o := range opts {
		o(c)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cnf *Config) {
		cnf.Logger = l
	}
}

// WithWaitTimeout bounds native waits. A wait that times out is
// completed as failed: the native engine receives ActionNone and a
// pending drop is completed unsuccessfully.
func WithWaitTimeout(d time.Duration) Option {
	return func(cnf *Config) {
		cnf.WaitTimeout = d
	}
}

// WithPump sets the function called periodically while a native
// callback waits.
func WithPump(interval time.Duration, pump func()) Option {
	return func(cnf *Config) {
		cnf.PumpInterval = interval
		cnf.Pump = pump
	}
}

// WithTargetActions sets the actions supported by a drop target.
func WithTargetActions(a transfer.Action) Option {
	return func(cnf *Config) {
		cnf.TargetActions = a
	}
}

// WithTranslator replaces the default format translator.
func WithTranslator(t transfer.Translator) Option {
	return func(cnf *Config) {
		cnf.Translator = t
	}
}

// WithDataPermission sets the check run before data is read outside
// of a drop.
func WithDataPermission(check func(format string) error) Option {
	return func(cnf *Config) {
		cnf.DataPermission = check
	}
}

// WithMaxDragImageSize bounds drag images. A zero size disables
// scaling.
func WithMaxDragImageSize(sz image.Point) Option {
	return func(cnf *Config) {
		cnf.MaxDragImageSize = sz
	}
}
