package vnode

import "strings"

// Scope is handed to a component while it renders. It gives access to the
// component's positional state slots.
type Scope interface {
	// State resolves the next state slot. It returns the slot's value for
	// this render and a function that queues a transform for the next one.
	State(initial any) (any, func(func(any) any))
}

// RenderFunc renders a component from its props.
type RenderFunc func(s Scope, props Props) *Node

// Component is a stateful function component. Its pointer is its identity.
type Component struct {
	Name   string
	Render RenderFunc
}

// Define creates a component.
func Define(name string, render RenderFunc) *Component {
	return &Component{Name: name, Render: render}
}

// Kind returns the composite kind of c.
func (c *Component) Kind() Kind {
	return Kind{tag: tagComposite, name: c.Name, component: c}
}

// Event is delivered to listeners by the host surface.
type Event struct {
	// Name is the event name, e.g. "click".
	Name string

	// Data carries event specific payload such as a key rune.
	Data any
}

// Listener wraps an event handler. Listeners are compared by pointer, so a
// new Listener on every render causes the handler to be rebound.
type Listener struct {
	fn func(Event)
}

// On creates a listener from fn.
func On(fn func(Event)) *Listener {
	return &Listener{fn: fn}
}

// Invoke calls the handler. A nil listener is a no-op.
func (l *Listener) Invoke(ev Event) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(ev)
}

// IsListener reports whether name is a listener property.
func IsListener(name string) bool {
	return len(name) > len(ListenerPrefix) && strings.HasPrefix(name, ListenerPrefix)
}

// EventName derives the event name from a listener property.
//
// Example: "onClick" -> "click"
func EventName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, ListenerPrefix))
}
