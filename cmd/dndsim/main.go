// SPDX-License-Identifier: Unlicense OR MIT

// Command dndsim simulates a drag and drop gesture between a source
// and a drop target, with an in-memory engine playing the native side.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"gioui.org/dnd/app"
	"gioui.org/dnd/gesture"
	"gioui.org/dnd/io/key"
	"gioui.org/dnd/io/pointer"
	"gioui.org/dnd/io/transfer"
)

var (
	actionsFlag = flag.String("actions", "copy,move", "actions supported by the source (copy, move, link).")
	acceptFlag  = flag.String("accept", "copy,move,link", "actions accepted by the target.")
	modsFlag    = flag.String("mods", "", "modifiers held during the drag (shift, ctrl).")
	text        = flag.String("text", "hello, world", "text to drag.")
	remote      = flag.Bool("remote", false, "drop into another simulated process, transferring the data as bytes.")
	steps       = flag.Int("steps", 8, "number of pointer motions between the source and the drop point.")
	timeout     = flag.Duration("timeout", 5*time.Second, "abandon native waits and the simulation after this duration.")
	verbose     = flag.Bool("v", false, "log debug messages.")
)

const mainUsage = `The dndsim command simulates a drag and drop gesture.

Usage:

	dndsim [flags]

The source sits at the left of a virtual screen and the drop target at
its right. The pointer is pressed on the source, dragged to the center
of the target and released. Every notification is logged.

`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, mainUsage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if err := mainErr(); err != nil {
		fmt.Fprintf(os.Stderr, "dndsim: %v\n", err)
		os.Exit(1)
	}
}

func mainErr() error {
	actions, err := parseActions(*actionsFlag)
	if err != nil {
		return err
	}
	accept, err := parseActions(*acceptFlag)
	if err != nil {
		return err
	}
	mods, err := parseMods(*modsFlag)
	if err != nil {
		return err
	}
	if *steps < 1 {
		return errors.New("-steps must be positive")
	}
	log, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	return simulate(ctx, log, actions, accept, mods)
}

func simulate(ctx context.Context, log *zap.Logger, actions, accept transfer.Action, mods key.Modifiers) error {
	opts := []app.Option{app.WithLogger(log), app.WithWaitTimeout(*timeout)}
	srcLoop := app.NewLoop(opts...)
	defer srcLoop.Close()
	srcCoord := app.NewCoordinator(opts...)
	dstLoop, dstCoord := srcLoop, srcCoord
	if *remote {
		dstLoop = app.NewLoop(app.WithLogger(log.Named("remote")))
		defer dstLoop.Close()
		dstCoord = app.NewCoordinator(app.WithLogger(log.Named("remote")))
	}

	source := image.Rect(0, 0, 100, 100)
	target := image.Rect(200, 0, 300, 100)
	origin := image.Pt(50, 50)
	dest := image.Pt(250, 50)
	path := make([]image.Point, *steps+1)
	for i := range path {
		path[i] = origin.Add(dest.Sub(origin).Mul(i).Div(*steps))
	}

	engine := newSimEngine(log.Named("engine"), target, mods)
	src := app.NewDragSession(srcCoord, srcLoop, engine, opts...)
	d := &dropper{log: log.Named("dropper"), accept: accept, dropped: make(chan interface{}, 1)}
	dst := app.NewDropSession(dstCoord, dstLoop, engine, append(opts, app.WithTargetActions(accept))...)
	dst.AddListener(d)

	g, ok := recognize(srcCoord, source, actions, mods, path)
	if !ok {
		return errors.New("pointer never left the drag slop")
	}
	err := src.StartDrag(app.DragRequest{
		Gesture:      g,
		Transferable: transfer.Value{Format: "text/plain;charset=utf-8", Value: *text},
		Actions:      actions,
		Listener:     sourceLogger{log: log.Named("listener")},
	})
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return engine.run(ctx, dst, path)
	})
	eg.Go(func() error {
		select {
		case v := <-d.dropped:
			fmt.Printf("dropped %q\n", fmt.Sprint(v))
		case <-src.Finished():
		case <-ctx.Done():
		}
		return nil
	})
	return eg.Wait()
}

// recognize feeds the pointer events of path to a drag recognizer.
func recognize(c *app.Coordinator, source image.Rectangle, actions transfer.Action, mods key.Modifiers, path []image.Point) (transfer.Gesture, bool) {
	d := gesture.Drag{Source: source, Actions: actions, Filter: c.FilterInput}
	d.Update(pointer.Event{
		Kind:      pointer.Press,
		Source:    pointer.Mouse,
		Buttons:   pointer.ButtonPrimary,
		Position:  path[0],
		Modifiers: mods,
	})
	for i, p := range path[1:] {
		g, ok := d.Update(pointer.Event{
			Kind:      pointer.Drag,
			Source:    pointer.Mouse,
			Buttons:   pointer.ButtonPrimary,
			Position:  p,
			Time:      time.Duration(i+1) * 16 * time.Millisecond,
			Modifiers: mods,
		})
		if ok {
			return g, true
		}
	}
	return transfer.Gesture{}, false
}

func parseActions(s string) (transfer.Action, error) {
	var a transfer.Action
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "copy":
			a |= transfer.ActionCopy
		case "move":
			a |= transfer.ActionMove
		case "link":
			a |= transfer.ActionLink
		case "":
		default:
			return 0, fmt.Errorf("unknown action %q", name)
		}
	}
	return a, nil
}

func parseMods(s string) (key.Modifiers, error) {
	var m key.Modifiers
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '-' || r == '+' }) {
		switch strings.ToLower(name) {
		case "shift":
			m |= key.ModShift
		case "ctrl":
			m |= key.ModCtrl
		default:
			return 0, fmt.Errorf("unknown modifier %q", name)
		}
	}
	return m, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	cnf := zap.NewDevelopmentConfig()
	cnf.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cnf.Level.SetLevel(zapcore.DebugLevel)
	}
	return cnf.Build()
}
