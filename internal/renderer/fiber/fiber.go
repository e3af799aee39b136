// Package fiber provides the mutable work-tracking tree used by the renderer.
//
// A Fiber mirrors one position of the virtual tree across renders. The
// Child and Sibling links encode the ordered children of a fiber, Parent
// points back up, and Alternate refers to the fiber at the same position
// in the last committed tree. Alternate is a lookup link only.
package fiber

import (
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// Effect is the mutation a fiber carries into the commit phase.
type Effect uint8

// Effect tags.
const (
	EffectNone Effect = iota
	EffectPlacement
	EffectUpdate
	EffectDeletion
)

// String returns the effect name.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectPlacement:
		return "placement"
	case EffectUpdate:
		return "update"
	case EffectDeletion:
		return "deletion"
	default:
		return "unknown"
	}
}

// Hook is a positional state slot of a component fiber.
type Hook struct {
	Value any
	Queue []func(any) any
}

// Fiber is one unit of work and one position in the rendered tree.
type Fiber struct {
	Kind  vnode.Kind
	Props vnode.Props

	// Elements are the virtual children of a primitive fiber.
	Elements []*vnode.Node

	Parent  *Fiber
	Child   *Fiber
	Sibling *Fiber

	// Alternate is the fiber at this position in the committed tree.
	Alternate *Fiber

	// Node is the presentation node, or backend.NoNode. Composite fibers
	// never own one.
	Node backend.NodeID

	Effect Effect

	// Hooks holds the state slots of a composite fiber, in call order.
	Hooks []*Hook
}

// NewRoot creates the root fiber of a build. The root owns the container
// node and has a single virtual child.
func NewRoot(container backend.NodeID, elements []*vnode.Node, alternate *Fiber) *Fiber {
	return &Fiber{
		Kind:      RootKind,
		Props:     vnode.Props{},
		Elements:  elements,
		Node:      container,
		Alternate: alternate,
	}
}

// RootKind is the kind of build root fibers.
var RootKind = vnode.Tag("#root")

// FromElement creates a fiber for el under parent.
func FromElement(el *vnode.Node, parent *Fiber) *Fiber {
	return &Fiber{
		Kind:     el.Kind,
		Props:    el.Props,
		Elements: el.Children,
		Parent:   parent,
	}
}

// IsComposite reports whether f renders a component.
func (f *Fiber) IsComposite() bool {
	return f.Kind.IsComposite()
}

// Children returns the child fibers of f in order.
func (f *Fiber) Children() []*Fiber {
	var out []*Fiber
	for c := f.Child; c != nil; c = c.Sibling {
		out = append(out, c)
	}
	return out
}

// Next returns the fiber processed after f: its first child, otherwise the
// nearest sibling of f or of one of its ancestors. It returns nil when the
// tree is exhausted.
func (f *Fiber) Next() *Fiber {
	if f.Child != nil {
		return f.Child
	}
	for n := f; n != nil; n = n.Parent {
		if n.Sibling != nil {
			return n.Sibling
		}
	}
	return nil
}

// HostParent returns the nearest ancestor that owns a presentation node.
func (f *Fiber) HostParent() *Fiber {
	p := f.Parent
	for p != nil && p.Node == backend.NoNode {
		p = p.Parent
	}
	return p
}

// HostNodes returns the presentation nodes that represent f at the top
// level: f's own node, or else the top-level nodes of its descendants.
func (f *Fiber) HostNodes() []backend.NodeID {
	if f.Node != backend.NoNode {
		return []backend.NodeID{f.Node}
	}
	var out []backend.NodeID
	for c := f.Child; c != nil; c = c.Sibling {
		out = append(out, c.HostNodes()...)
	}
	return out
}

// Walk calls fn for f and every descendant in unit order.
func (f *Fiber) Walk(fn func(*Fiber)) {
	for n := f; n != nil; {
		fn(n)
		if n.Child != nil {
			n = n.Child
			continue
		}
		for n != nil && n != f && n.Sibling == nil {
			n = n.Parent
		}
		if n == nil || n == f {
			return
		}
		n = n.Sibling
	}
}
