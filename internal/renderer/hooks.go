package renderer

import (
	"github.com/dshills/tessera/internal/renderer/fiber"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// scope is the hook context handed to a component while it renders.
type scope struct {
	root  *Root
	fiber *fiber.Fiber
	index int
	done  bool
}

// State resolves the next positional slot. The value is taken from the
// slot at the same position of the committed fiber, with its queued
// transitions applied in order, or initial when there is none.
func (s *scope) State(initial any) (any, func(func(any) any)) {
	if s.done {
		panic(ErrHookOutsideRender)
	}
	f := s.fiber

	var old *fiber.Hook
	if alt := f.Alternate; alt != nil && s.index < len(alt.Hooks) {
		old = alt.Hooks[s.index]
	}

	hook := &fiber.Hook{Value: initial}
	if old != nil {
		hook.Value = old.Value
		for _, action := range old.Queue {
			hook.Value = action(hook.Value)
		}
	}

	f.Hooks = append(f.Hooks, hook)
	s.index++

	root := s.root
	set := func(action func(any) any) {
		hook.Queue = append(hook.Queue, action)
		root.requestUpdate()
	}
	return hook.Value, set
}

// UseState returns the current value of the next state slot of the
// rendering component and a setter that queues a transition for it.
//
// Each setter call starts a new build from the committed tree, replacing
// any build in flight. Slots are matched by call order, so a component
// must call UseState the same number of times in the same order on every
// render.
func UseState[T any](s vnode.Scope, initial T) (T, func(func(T) T)) {
	v, set := s.State(initial)
	setT := func(action func(T) T) {
		set(func(prev any) any {
			return action(asValue[T](prev))
		})
	}
	return asValue[T](v), setT
}

// Set returns a transition that replaces the state with v.
func Set[T any](v T) func(T) T {
	return func(T) T { return v }
}

func asValue[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
