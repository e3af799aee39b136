// Package reconcile diffs a fiber's previous children against new virtual
// children.
//
// Matching is positional: the Nth old fiber is compared with the Nth new
// element and reused only when both have the same kind. There is no keyed
// matching, so reordering children degrades to deletions plus placements.
package reconcile

import (
	"github.com/dshills/tessera/internal/renderer/fiber"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// Children builds parent's child fiber chain for elements and returns the
// old fibers that must be deleted, in position order.
//
// For every position exactly one of the following happens:
//   - same kind: an update fiber reusing the old presentation node;
//   - a new element without a match: a placement fiber;
//   - an old fiber without a match: the old fiber is tagged for deletion.
//
// A kind mismatch produces both a placement and a deletion.
func Children(parent *fiber.Fiber, elements []*vnode.Node) []*fiber.Fiber {
	var old *fiber.Fiber
	if parent.Alternate != nil {
		old = parent.Alternate.Child
	}

	var deletions []*fiber.Fiber
	var prev *fiber.Fiber
	parent.Child = nil

	for i := 0; i < len(elements) || old != nil; i++ {
		var el *vnode.Node
		if i < len(elements) {
			el = elements[i]
		}

		sameKind := old != nil && el != nil && old.Kind == el.Kind

		var next *fiber.Fiber
		switch {
		case sameKind:
			next = fiber.FromElement(el, parent)
			next.Node = old.Node
			next.Alternate = old
			next.Effect = fiber.EffectUpdate
		case el != nil:
			next = fiber.FromElement(el, parent)
			next.Effect = fiber.EffectPlacement
		}

		if old != nil && !sameKind {
			old.Effect = fiber.EffectDeletion
			deletions = append(deletions, old)
		}

		if old != nil {
			old = old.Sibling
		}

		if next == nil {
			continue
		}
		if prev == nil {
			parent.Child = next
		} else {
			prev.Sibling = next
		}
		prev = next
	}

	return deletions
}
