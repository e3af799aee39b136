package backend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/tessera/internal/renderer/vnode"
)

// Op identifies a backend call recorded by Recorder.
type Op string

// Recorded operations.
const (
	OpCreate  Op = "create"
	OpSet     Op = "set"
	OpClear   Op = "clear"
	OpBind    Op = "bind"
	OpUnbind  Op = "unbind"
	OpAppend  Op = "append"
	OpRemove  Op = "remove"
	OpFlushed Op = "flush"
)

// Call is one recorded backend call.
type Call struct {
	Op     Op
	Node   NodeID
	Parent NodeID // append/remove only
	Name   string // tag, property or event name
	Value  any    // set only

	// Attached is true when the target node was reachable from the
	// container at the time of the call, i.e. the call was visible.
	Attached bool
}

// String returns a compact form used in test failures.
func (c Call) String() string {
	switch c.Op {
	case OpAppend, OpRemove:
		return fmt.Sprintf("%s(%d -> %d)", c.Op, c.Node, c.Parent)
	case OpSet:
		return fmt.Sprintf("%s(%d, %s=%v)", c.Op, c.Node, c.Name, c.Value)
	default:
		return fmt.Sprintf("%s(%d, %s)", c.Op, c.Node, c.Name)
	}
}

type recNode struct {
	kind      vnode.Kind
	props     map[string]any
	listeners map[string]*vnode.Listener
	parent    NodeID
	children  []NodeID
}

// Recorder is an in-memory Backend that keeps a real node tree and logs
// every call. It is the surface used by tests and by the -dump mode.
type Recorder struct {
	nodes     map[NodeID]*recNode
	nextID    NodeID
	container NodeID
	calls     []Call
	observer  func(Call)
}

// NewRecorder creates a recorder with a single empty container node.
func NewRecorder() *Recorder {
	r := &Recorder{
		nodes: make(map[NodeID]*recNode),
	}
	r.container = r.alloc(vnode.Tag("#container"))
	return r
}

// Container returns the root container node.
func (r *Recorder) Container() NodeID {
	return r.container
}

// Observe registers fn to be called after each recorded call.
func (r *Recorder) Observe(fn func(Call)) {
	r.observer = fn
}

func (r *Recorder) alloc(kind vnode.Kind) NodeID {
	r.nextID++
	id := r.nextID
	r.nodes[id] = &recNode{
		kind:      kind,
		props:     make(map[string]any),
		listeners: make(map[string]*vnode.Listener),
	}
	return id
}

func (r *Recorder) record(c Call) {
	c.Attached = r.attached(c.Node) || (c.Parent != NoNode && r.attached(c.Parent))
	r.calls = append(r.calls, c)
	if r.observer != nil {
		r.observer(c)
	}
}

func (r *Recorder) node(id NodeID) *recNode {
	n, ok := r.nodes[id]
	if !ok {
		panic(fmt.Sprintf("backend: unknown node %d", id))
	}
	return n
}

// CreateNode implements Backend.
func (r *Recorder) CreateNode(kind vnode.Kind) NodeID {
	id := r.alloc(kind)
	r.record(Call{Op: OpCreate, Node: id, Name: kind.Name()})
	return id
}

// SetProperty implements Backend.
func (r *Recorder) SetProperty(node NodeID, name string, value any) {
	r.node(node).props[name] = value
	r.record(Call{Op: OpSet, Node: node, Name: name, Value: value})
}

// ClearProperty implements Backend.
func (r *Recorder) ClearProperty(node NodeID, name string) {
	delete(r.node(node).props, name)
	r.record(Call{Op: OpClear, Node: node, Name: name})
}

// BindListener implements Backend.
func (r *Recorder) BindListener(node NodeID, event string, l *vnode.Listener) {
	r.node(node).listeners[event] = l
	r.record(Call{Op: OpBind, Node: node, Name: event})
}

// UnbindListener implements Backend.
func (r *Recorder) UnbindListener(node NodeID, event string, l *vnode.Listener) {
	n := r.node(node)
	if n.listeners[event] == l {
		delete(n.listeners, event)
	}
	r.record(Call{Op: OpUnbind, Node: node, Name: event})
}

// AppendChild implements Backend.
func (r *Recorder) AppendChild(parent, child NodeID) {
	p, c := r.node(parent), r.node(child)
	if c.parent != NoNode {
		r.detach(c.parent, child)
	}
	p.children = append(p.children, child)
	c.parent = parent
	r.record(Call{Op: OpAppend, Node: child, Parent: parent})
}

// RemoveChild implements Backend.
func (r *Recorder) RemoveChild(parent, child NodeID) {
	// Record first so Attached reflects the state before removal.
	r.record(Call{Op: OpRemove, Node: child, Parent: parent})
	r.detach(parent, child)
}

// Flush implements Flusher.
func (r *Recorder) Flush() {
	r.record(Call{Op: OpFlushed, Node: r.container})
}

func (r *Recorder) detach(parent, child NodeID) {
	p := r.node(parent)
	idx := slices.Index(p.children, child)
	if idx < 0 {
		panic(fmt.Sprintf("backend: node %d is not a child of %d", child, parent))
	}
	p.children = slices.Delete(p.children, idx, idx+1)
	r.node(child).parent = NoNode
}

func (r *Recorder) attached(id NodeID) bool {
	for id != NoNode {
		if id == r.container {
			return true
		}
		n, ok := r.nodes[id]
		if !ok {
			return false
		}
		id = n.parent
	}
	return false
}

// Calls returns the recorded calls.
func (r *Recorder) Calls() []Call {
	return slices.Clone(r.calls)
}

// Reset clears the call log. The node tree is kept.
func (r *Recorder) Reset() {
	r.calls = nil
}

// Children returns the child nodes of id in order.
func (r *Recorder) Children(id NodeID) []NodeID {
	return slices.Clone(r.node(id).children)
}

// Kind returns the kind a node was created with.
func (r *Recorder) Kind(id NodeID) vnode.Kind {
	return r.node(id).kind
}

// Prop returns a plain property of a node.
func (r *Recorder) Prop(id NodeID, name string) (any, bool) {
	v, ok := r.node(id).props[name]
	return v, ok
}

// Listener returns the handler bound for event on id, or nil.
func (r *Recorder) Listener(id NodeID, event string) *vnode.Listener {
	return r.node(id).listeners[event]
}

// Dispatch fires event on id as the host would on user input.
// It reports whether a listener was bound.
func (r *Recorder) Dispatch(id NodeID, event string, data any) bool {
	l := r.node(id).listeners[event]
	if l == nil {
		return false
	}
	l.Invoke(vnode.Event{Name: event, Data: data})
	return true
}

// Attached reports whether id is reachable from the container.
func (r *Recorder) Attached(id NodeID) bool {
	return r.attached(id)
}

// TextContent concatenates the text of all text nodes below id.
func (r *Recorder) TextContent(id NodeID) string {
	var sb strings.Builder
	r.text(id, &sb)
	return sb.String()
}

func (r *Recorder) text(id NodeID, sb *strings.Builder) {
	n := r.node(id)
	if n.kind.IsText() {
		if v, ok := n.props[vnode.NodeValue]; ok {
			fmt.Fprint(sb, v)
		}
	}
	for _, c := range n.children {
		r.text(c, sb)
	}
}

// FindByProp returns the first attached node, in document order, whose
// property name equals value.
func (r *Recorder) FindByProp(name string, value any) (NodeID, bool) {
	var found NodeID
	var walk func(id NodeID) bool
	walk = func(id NodeID) bool {
		if sameValue(r.node(id).props[name], value) {
			found = id
			return true
		}
		for _, c := range r.node(id).children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	ok := walk(r.container)
	return found, ok
}
