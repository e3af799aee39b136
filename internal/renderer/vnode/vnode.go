// Package vnode provides the immutable virtual node model.
//
// A virtual node describes what should be shown: an element kind, a
// property map, and ordered children. Nodes are built with Element and
// never change afterwards; the renderer turns them into fibers.
package vnode

import (
	"fmt"
	"maps"
)

// NodeValue is the property that carries the content of a text node.
const NodeValue = "nodeValue"

// ListenerPrefix marks listener-class properties ("onClick", "onKeyDown").
const ListenerPrefix = "on"

// kindTag discriminates the Kind variants.
type kindTag uint8

const (
	tagPrimitive kindTag = iota + 1
	tagComposite
	tagText
)

// Kind identifies what a node is. It is one of Primitive(tag),
// Composite(component) or Text, and is comparable with ==.
type Kind struct {
	tag       kindTag
	name      string
	component *Component
}

// TextKind is the kind of text-content nodes.
var TextKind = Kind{tag: tagText, name: "#text"}

// Tag returns the primitive kind for an element tag such as "div".
func Tag(name string) Kind {
	return Kind{tag: tagPrimitive, name: name}
}

// IsPrimitive reports whether k is a primitive element tag.
func (k Kind) IsPrimitive() bool { return k.tag == tagPrimitive }

// IsComposite reports whether k refers to a component.
func (k Kind) IsComposite() bool { return k.tag == tagComposite }

// IsText reports whether k is the text kind.
func (k Kind) IsText() bool { return k.tag == tagText }

// IsZero reports whether k is the zero Kind.
func (k Kind) IsZero() bool { return k.tag == 0 }

// Name returns the element tag, the component name, or "#text".
func (k Kind) Name() string { return k.name }

// Component returns the component of a composite kind, or nil.
func (k Kind) Component() *Component { return k.component }

// String returns a readable form of the kind.
func (k Kind) String() string {
	switch k.tag {
	case tagPrimitive:
		return k.name
	case tagComposite:
		return "<" + k.name + ">"
	case tagText:
		return "#text"
	default:
		return "<invalid>"
	}
}

// Props is the property map of a node.
type Props map[string]any

// Node is an immutable description of presentation content.
type Node struct {
	Kind     Kind
	Props    Props
	Children []*Node
}

// Element builds a node.
//
// kind may be a Kind, a string (primitive tag) or a *Component. Children
// are normalized: *Node values are kept, []*Node values are flattened,
// nil values are skipped and anything else becomes a text node.
// A listener property given as a plain func(Event) is wrapped with On.
// An unrecognized kind panics.
func Element(kind any, props Props, children ...any) *Node {
	n := &Node{
		Kind:  kindOf(kind),
		Props: maps.Clone(props),
	}
	if n.Props == nil {
		n.Props = Props{}
	}
	for name, v := range n.Props {
		if fn, ok := v.(func(Event)); ok && IsListener(name) {
			n.Props[name] = On(fn)
		}
	}
	n.Children = normalize(children)
	return n
}

// Text builds a text node holding value.
func Text(value any) *Node {
	return &Node{
		Kind:  TextKind,
		Props: Props{NodeValue: value},
	}
}

func kindOf(kind any) Kind {
	switch k := kind.(type) {
	case Kind:
		if k.IsZero() {
			panic("vnode: zero Kind")
		}
		return k
	case string:
		return Tag(k)
	case *Component:
		return k.Kind()
	default:
		panic(fmt.Sprintf("vnode: unsupported kind %T", kind))
	}
}

func normalize(children []any) []*Node {
	if len(children) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(children))
	for _, c := range children {
		switch v := c.(type) {
		case nil:
		case *Node:
			if v != nil {
				out = append(out, v)
			}
		case []*Node:
			for _, n := range v {
				if n != nil {
					out = append(out, n)
				}
			}
		default:
			out = append(out, Text(v))
		}
	}
	return out
}
