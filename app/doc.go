// SPDX-License-Identifier: Unlicense OR MIT

/*
Package app connects a native drag and drop engine to application
listeners running on a UI execution context.

# Execution contexts

Native engines call sessions from their own thread. Listeners run on a
[Loop], which executes posted functions one at a time in post order.
A native callback that needs an answer, such as the action to show
while a drag is over a target, posts its notification to the Loop and
blocks until every copy of the notification has been delivered.

# Sessions

A [DragSession] tracks one outgoing drag, from [DragSession.StartDrag]
to [DragSession.DragDropFinished]. A [DropSession] tracks drags over one
drop target and is reused across drags.

At most one drag is active in a process. The [Coordinator] enforces that
and carries the transferable of a same-process drag from the source to
the target. Sessions that should see each other must share a
Coordinator; tests typically create one per test.

For example, a native engine delivering callbacks for a drop target:

	loop := app.NewLoop()
	coord := app.NewCoordinator()
	target := app.NewDropSession(coord, loop, engine)
	target.AddListener(listener)

	// On the native thread:
	action := target.DragEnter(app.NativeDrag{
		Pos:       image.Pt(10, 10),
		Action:    transfer.ActionCopy,
		Supported: transfer.ActionCopyOrMove,
		Formats:   []string{"text/plain"},
		Context:   handle,
	})
*/
package app
