package fiber

import (
	"testing"

	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// link builds a fiber named by its "id" prop with the given children.
func link(parent *Fiber, id string, node backend.NodeID, children ...*Fiber) *Fiber {
	f := &Fiber{Kind: vnode.Tag("div"), Props: vnode.Props{"id": id}, Parent: parent, Node: node}
	var prev *Fiber
	for _, c := range children {
		c.Parent = f
		if prev == nil {
			f.Child = c
		} else {
			prev.Sibling = c
		}
		prev = c
	}
	return f
}

func ids(fs []*Fiber) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Props["id"].(string)
	}
	return out
}

func TestNextIsDepthFirstChildrenBeforeSiblings(t *testing.T) {
	//        root
	//       /    \
	//      a      d
	//     / \
	//    b   c
	b := link(nil, "b", 3)
	c := link(nil, "c", 4)
	a := link(nil, "a", 2, b, c)
	d := link(nil, "d", 5)
	root := link(nil, "root", 1, a, d)

	var order []*Fiber
	for f := root; f != nil; f = f.Next() {
		order = append(order, f)
	}

	got := ids(order)
	want := []string{"root", "a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	var walked []*Fiber
	root.Walk(func(f *Fiber) { walked = append(walked, f) })
	if len(walked) != len(order) {
		t.Errorf("Walk visited %v", ids(walked))
	}

	var sub []*Fiber
	a.Walk(func(f *Fiber) { sub = append(sub, f) })
	if got := ids(sub); len(got) != 3 || got[2] != "c" {
		t.Errorf("Walk(a) = %v, should not leave the subtree", got)
	}
}

func TestHostParentSkipsComposites(t *testing.T) {
	leaf := link(nil, "leaf", 9)
	comp := link(nil, "comp", backend.NoNode, leaf)
	comp.Kind = vnode.Define("C", nil).Kind()
	root := link(nil, "root", 1, comp)

	if got := leaf.HostParent(); got != root {
		t.Errorf("HostParent = %p, want root %p", got, root)
	}
	if root.HostParent() != nil {
		t.Error("root has no host parent")
	}
}

func TestHostNodesDescendsThroughComposites(t *testing.T) {
	inner := link(nil, "inner", backend.NoNode, link(nil, "x", 7), link(nil, "y", 8))
	outer := link(nil, "outer", backend.NoNode, inner)

	got := outer.HostNodes()
	if len(got) != 2 || got[0] != 7 || got[1] != 8 {
		t.Errorf("HostNodes = %v, want [7 8]", got)
	}

	owned := link(nil, "owned", 3, link(nil, "child", 4))
	if got := owned.HostNodes(); len(got) != 1 || got[0] != 3 {
		t.Errorf("HostNodes = %v, want [3]", got)
	}
}

func TestFromElementAndRoot(t *testing.T) {
	el := vnode.Element("ul", vnode.Props{"id": "list"}, vnode.Element("li", nil))
	root := NewRoot(1, []*vnode.Node{el}, nil)
	f := FromElement(el, root)

	if f.Kind != el.Kind || f.Props["id"] != "list" || len(f.Elements) != 1 {
		t.Errorf("FromElement copied %+v", f)
	}
	if f.Parent != root || f.Effect != EffectNone || f.Node != backend.NoNode {
		t.Error("new fiber should be linked, untagged and without node")
	}
	if root.Kind != RootKind || root.Node != 1 {
		t.Error("root should own the container")
	}
}

func TestEffectString(t *testing.T) {
	for e, want := range map[Effect]string{
		EffectNone:      "none",
		EffectPlacement: "placement",
		EffectUpdate:    "update",
		EffectDeletion:  "deletion",
		Effect(42):      "unknown",
	} {
		if got := e.String(); got != want {
			t.Errorf("Effect(%d).String() = %q, want %q", e, got, want)
		}
	}
}
