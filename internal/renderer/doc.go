// Package renderer is the incremental rendering engine.
//
// The renderer turns virtual node trees into mutations against a
// presentation Backend. Work is split into units (one per fiber) that run
// inside idle slices handed out by a Scheduler, so a large tree never
// blocks the host for longer than one unit. When the last unit of a build
// finishes, the commit phase applies every recorded effect in one pass;
// the surface never shows a half-built tree.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│        Root (render-root context)       │
//	│  Render │ work loop │ commit │ hooks    │
//	├─────────────────────────────────────────┤
//	│  vnode  │  fiber  │  reconcile          │
//	├─────────────────────────────────────────┤
//	│  scheduler (Loop, Manual)               │
//	├─────────────────────────────────────────┤
//	│  backend (Recorder, Terminal via tcell) │
//	└─────────────────────────────────────────┘
//
// Usage:
//
//	term, _ := backend.NewTerminal()
//	loop := scheduler.NewLoop()
//	root := renderer.New(term, loop)
//	root.Render(vnode.Element(counter, nil), term.Container())
//	loop.Run(ctx)
//
// Components keep state through positional hooks:
//
//	var counter = vnode.Define("Counter", func(s vnode.Scope, _ vnode.Props) *vnode.Node {
//	    count, setCount := renderer.UseState(s, 1)
//	    return vnode.Element("h1", vnode.Props{
//	        "onClick": vnode.On(func(vnode.Event) { setCount(func(c int) int { return c + 1 }) }),
//	    }, "Count: ", count)
//	})
//
// A Root is not safe for concurrent use. All calls, including state
// setters invoked from listeners, must happen on the scheduler's goroutine.
package renderer
