package backend

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dshills/tessera/internal/renderer/vnode"
)

// TreeNode is a serializable view of a presentation subtree.
type TreeNode struct {
	ID        NodeID            `yaml:"id"`
	Kind      string            `yaml:"kind"`
	Text      string            `yaml:"text,omitempty"`
	Props     map[string]string `yaml:"props,omitempty"`
	Listeners []string          `yaml:"listeners,omitempty"`
	Children  []TreeNode        `yaml:"children,omitempty"`
}

// Snapshot captures the subtree rooted at id.
func (r *Recorder) Snapshot(id NodeID) TreeNode {
	n := r.node(id)
	tn := TreeNode{
		ID:   id,
		Kind: n.kind.String(),
	}
	for _, name := range sortedKeys(n.props) {
		if n.kind.IsText() && name == vnode.NodeValue {
			tn.Text = fmt.Sprint(n.props[name])
			continue
		}
		if tn.Props == nil {
			tn.Props = make(map[string]string)
		}
		tn.Props[name] = fmt.Sprint(n.props[name])
	}
	for event, l := range n.listeners {
		if l != nil {
			tn.Listeners = append(tn.Listeners, event)
		}
	}
	sort.Strings(tn.Listeners)
	for _, c := range n.children {
		tn.Children = append(tn.Children, r.Snapshot(c))
	}
	return tn
}

// DumpYAML renders the container subtree as YAML.
func (r *Recorder) DumpYAML() ([]byte, error) {
	out, err := yaml.Marshal(r.Snapshot(r.container))
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return out, nil
}
