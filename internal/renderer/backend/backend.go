// Package backend provides the presentation surface abstraction for the
// renderer.
//
// A Backend owns presentation nodes and exposes the mutations the commit
// phase needs. Two implementations live here: Recorder, an in-memory
// surface that logs every call, and Terminal, which paints the node tree
// with tcell.
package backend

import (
	"reflect"
	"sort"

	"github.com/dshills/tessera/internal/renderer/vnode"
)

// NodeID is an opaque handle to a presentation node owned by a Backend.
type NodeID uint64

// NoNode is the zero handle; no backend ever returns it from CreateNode.
const NoNode NodeID = 0

// Backend defines the capability set of a presentation surface.
type Backend interface {
	// CreateNode allocates a node for a primitive tag, or a text node for
	// vnode.TextKind. The node is detached until appended.
	CreateNode(kind vnode.Kind) NodeID

	// SetProperty sets a plain (non-listener) property.
	SetProperty(node NodeID, name string, value any)

	// ClearProperty resets a plain property.
	ClearProperty(node NodeID, name string)

	// BindListener attaches a handler for an event name.
	BindListener(node NodeID, event string, l *vnode.Listener)

	// UnbindListener detaches a previously bound handler.
	UnbindListener(node NodeID, event string, l *vnode.Listener)

	// AppendChild appends child as the last child of parent.
	AppendChild(parent, child NodeID)

	// RemoveChild detaches child from parent.
	RemoveChild(parent, child NodeID)
}

// Flusher is implemented by backends that buffer mutations and need to
// synchronize them with the display after a commit.
type Flusher interface {
	Flush()
}

// ApplyProps pushes the difference between prev and next to node.
//
// Order: removed or changed listeners are unbound, removed plain
// properties are cleared, new or changed plain properties are set, then
// new or changed listeners are bound. It returns the number of backend
// calls made.
//
// Listener properties must hold a *vnode.Listener; Element wraps plain
// handler funcs. Any other value under a listener name is neither set
// nor bound.
func ApplyProps(b Backend, node NodeID, prev, next vnode.Props) int {
	calls := 0

	for _, name := range sortedKeys(prev) {
		if !vnode.IsListener(name) {
			continue
		}
		nv, ok := next[name]
		if ok && sameValue(prev[name], nv) {
			continue
		}
		if l, isListener := prev[name].(*vnode.Listener); isListener {
			b.UnbindListener(node, vnode.EventName(name), l)
			calls++
		}
	}

	for _, name := range sortedKeys(prev) {
		if vnode.IsListener(name) {
			continue
		}
		if _, ok := next[name]; !ok {
			b.ClearProperty(node, name)
			calls++
		}
	}

	for _, name := range sortedKeys(next) {
		if vnode.IsListener(name) {
			continue
		}
		pv, ok := prev[name]
		if ok && sameValue(pv, next[name]) {
			continue
		}
		b.SetProperty(node, name, next[name])
		calls++
	}

	for _, name := range sortedKeys(next) {
		if !vnode.IsListener(name) {
			continue
		}
		pv, ok := prev[name]
		if ok && sameValue(pv, next[name]) {
			continue
		}
		if l, isListener := next[name].(*vnode.Listener); isListener {
			b.BindListener(node, vnode.EventName(name), l)
			calls++
		}
	}

	return calls
}

// PropsEqual reports whether applying next over prev would be a no-op.
func PropsEqual(prev, next vnode.Props) bool {
	if len(prev) != len(next) {
		return false
	}
	for name, pv := range prev {
		nv, ok := next[name]
		if !ok || !sameValue(pv, nv) {
			return false
		}
	}
	return true
}

// sameValue compares prop values. DeepEqual treats every non-nil func as
// different, so funcs are compared by code pointer.
func sameValue(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Func && vb.Kind() == reflect.Func {
		if va.Type() != vb.Type() || va.IsNil() != vb.IsNil() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	}
	return reflect.DeepEqual(a, b)
}

// sortedKeys keeps backend call order deterministic across map iteration.
func sortedKeys(p vnode.Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
