package renderer

import (
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/fiber"
	"github.com/dshills/tessera/internal/renderer/reconcile"
	"github.com/dshills/tessera/internal/renderer/scheduler"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// workLoop is the idle task of the root. It runs units while the slice
// has time left, commits a finished build and registers itself again,
// also when a unit panics.
func (r *Root) workLoop(d scheduler.Deadline) {
	defer r.sched.RequestIdle(r.workLoop)
	r.stats.Slices++

	for r.nextUnit != nil {
		if d.TimeRemaining() < r.opts.MinRemaining {
			r.stats.Yields++
			break
		}
		wip := r.wip
		next := r.runUnit(r.nextUnit)
		// A unit may have started a new build; that build wins.
		if r.wip == wip {
			r.nextUnit = next
		}
	}

	if r.nextUnit == nil && r.wip != nil {
		r.commit()
	}
}

// runUnit processes f and abandons the build if f panics. The panic is
// not recovered.
func (r *Root) runUnit(f *fiber.Fiber) *fiber.Fiber {
	done := false
	defer func() {
		if !done {
			r.discard("unit panicked in " + f.Kind.String())
		}
	}()
	next := r.performUnit(f)
	r.stats.Units++
	done = true
	return next
}

// performUnit does the work of one fiber and returns the next one.
func (r *Root) performUnit(f *fiber.Fiber) *fiber.Fiber {
	if f.IsComposite() {
		r.updateComposite(f)
	} else {
		r.updateHost(f)
	}
	return f.Next()
}

func (r *Root) updateComposite(f *fiber.Fiber) {
	f.Hooks = nil
	s := &scope{root: r, fiber: f}
	out := f.Kind.Component().Render(s, f.Props)
	s.done = true

	var elements []*vnode.Node
	if out != nil {
		elements = []*vnode.Node{out}
	}
	r.reconcileChildren(f, elements)
}

func (r *Root) updateHost(f *fiber.Fiber) {
	if f.Node == backend.NoNode {
		f.Node = r.backend.CreateNode(f.Kind)
		backend.ApplyProps(r.backend, f.Node, nil, f.Props)
	}
	r.reconcileChildren(f, f.Elements)
}

func (r *Root) reconcileChildren(f *fiber.Fiber, elements []*vnode.Node) {
	r.deletions = append(r.deletions, reconcile.Children(f, elements)...)
}
