package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// blockTags start on a fresh line and end the line after their content.
var blockTags = map[string]bool{
	"div": true, "box": true, "p": true, "section": true, "ul": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

type termNode struct {
	kind      vnode.Kind
	props     map[string]any
	listeners map[string]*vnode.Listener
	parent    NodeID
	children  []NodeID
}

func (n *termNode) style() core.Style {
	s := core.DefaultStyle()
	if v, ok := n.props["color"].(string); ok {
		if c, err := core.ParseColor(v); err == nil {
			s.Foreground = c
		}
	}
	if v, ok := n.props["background"].(string); ok {
		if c, err := core.ParseColor(v); err == nil {
			s.Background = c
		}
	}
	if v, ok := n.props["bold"].(bool); ok && v {
		s.Attributes = s.Attributes.With(core.AttrBold)
	}
	if v, ok := n.props["underline"].(bool); ok && v {
		s.Attributes = s.Attributes.With(core.AttrUnderline)
	}
	return s
}

type hitRegion struct {
	node NodeID
	area core.Rect
}

// Terminal implements Backend using tcell. It keeps a retained node tree
// and repaints it on Flush.
type Terminal struct {
	mu sync.Mutex

	screen    tcell.Screen
	nodes     map[NodeID]*termNode
	nextID    NodeID
	container NodeID

	// Painted regions of nodes with listeners, in document order.
	hits       []hitRegion
	focus      NodeID
	lastButton tcell.ButtonMask
}

// NewTerminal creates a terminal backend on the process terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(screen), nil
}

// NewTerminalWithScreen creates a terminal backend on screen. Tests pass a
// tcell simulation screen.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	t := &Terminal{
		screen: screen,
		nodes:  make(map[NodeID]*termNode),
	}
	t.container = t.alloc(vnode.Tag("#container"))
	return t
}

// Init initializes the screen. Must be called before any other method.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrScreenInit, err)
	}
	t.screen.EnableMouse()
	t.screen.Clear()
	return nil
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

// Container returns the root container node.
func (t *Terminal) Container() NodeID {
	return t.container
}

// Size returns the screen dimensions.
func (t *Terminal) Size() (width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

func (t *Terminal) alloc(kind vnode.Kind) NodeID {
	t.nextID++
	t.nodes[t.nextID] = &termNode{
		kind:      kind,
		props:     make(map[string]any),
		listeners: make(map[string]*vnode.Listener),
	}
	return t.nextID
}

func (t *Terminal) node(id NodeID) *termNode {
	n, ok := t.nodes[id]
	if !ok {
		panic(fmt.Sprintf("backend: unknown node %d", id))
	}
	return n
}

// CreateNode implements Backend.
func (t *Terminal) CreateNode(kind vnode.Kind) NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.alloc(kind)
}

// SetProperty implements Backend.
func (t *Terminal) SetProperty(node NodeID, name string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.node(node).props[name] = value
}

// ClearProperty implements Backend.
func (t *Terminal) ClearProperty(node NodeID, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.node(node).props, name)
}

// BindListener implements Backend.
func (t *Terminal) BindListener(node NodeID, event string, l *vnode.Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.node(node).listeners[event] = l
}

// UnbindListener implements Backend.
func (t *Terminal) UnbindListener(node NodeID, event string, l *vnode.Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.node(node)
	if n.listeners[event] == l {
		delete(n.listeners, event)
	}
}

// AppendChild implements Backend.
func (t *Terminal) AppendChild(parent, child NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.node(child)
	if c.parent != NoNode {
		t.detach(c.parent, child)
	}
	p := t.node(parent)
	p.children = append(p.children, child)
	c.parent = parent
}

// RemoveChild implements Backend.
func (t *Terminal) RemoveChild(parent, child NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.detach(parent, child)
	t.release(child)
}

func (t *Terminal) detach(parent, child NodeID) {
	p := t.node(parent)
	if idx := slices.Index(p.children, child); idx >= 0 {
		p.children = slices.Delete(p.children, idx, idx+1)
	}
	t.node(child).parent = NoNode
}

// release forgets a removed subtree; removed nodes are never re-attached.
func (t *Terminal) release(id NodeID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.children {
		t.release(c)
	}
	if t.focus == id {
		t.focus = NoNode
	}
	delete(t.nodes, id)
}

// Flush implements Flusher. It forgets nodes that are not attached under
// the container and repaints the tree. The renderer flushes only after a
// commit, when no build holds nodes that are still to be placed, so every
// detached node at that point belongs to a discarded build.
func (t *Terminal) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweep()
	t.paint()
}

func (t *Terminal) sweep() {
	live := make(map[NodeID]bool, len(t.nodes))
	var mark func(id NodeID)
	mark = func(id NodeID) {
		n, ok := t.nodes[id]
		if !ok || live[id] {
			return
		}
		live[id] = true
		for _, c := range n.children {
			mark(c)
		}
	}
	mark(t.container)

	for id := range t.nodes {
		if live[id] {
			continue
		}
		if t.focus == id {
			t.focus = NoNode
		}
		delete(t.nodes, id)
	}
}

// PollEvent waits for the next terminal event. This is a blocking call.
func (t *Terminal) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// PostQuit wakes a blocked PollEvent with an interrupt event.
func (t *Terminal) PostQuit() {
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil)) // best-effort; queue may be full
}

// HandleEvent routes a terminal event to node listeners.
//
// Tab and Backtab move focus between clickable nodes, Enter and Space
// fire "click" on the focused node, a left mouse press fires "click" on
// the innermost node under the pointer, and other keys fire "keydown" on
// the focused node with the rune as data. It reports whether a listener
// ran.
func (t *Terminal) HandleEvent(ev tcell.Event) bool {
	t.mu.Lock()
	var target *vnode.Listener
	var out vnode.Event

	switch e := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
		t.paint()
	case *tcell.EventKey:
		switch e.Key() {
		case tcell.KeyTab:
			t.moveFocus(1)
			t.paint()
		case tcell.KeyBacktab:
			t.moveFocus(-1)
			t.paint()
		case tcell.KeyEnter:
			target, out = t.listenerFor(t.focus, "click"), vnode.Event{Name: "click"}
		case tcell.KeyRune:
			if e.Rune() == ' ' {
				target, out = t.listenerFor(t.focus, "click"), vnode.Event{Name: "click"}
			} else {
				target, out = t.listenerFor(t.focus, "keydown"), vnode.Event{Name: "keydown", Data: e.Rune()}
			}
		}
	case *tcell.EventMouse:
		buttons := e.Buttons()
		pressed := buttons&tcell.Button1 != 0 && t.lastButton&tcell.Button1 == 0
		t.lastButton = buttons
		if pressed {
			x, y := e.Position()
			if id := t.hitTest(x, y, "click"); id != NoNode {
				t.focus = id
				target, out = t.listenerFor(id, "click"), vnode.Event{Name: "click"}
			}
		}
	}
	t.mu.Unlock()

	if target == nil {
		return false
	}
	target.Invoke(out)
	return true
}

// Focus returns the focused node.
func (t *Terminal) Focus() NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.focus
}

func (t *Terminal) listenerFor(id NodeID, event string) *vnode.Listener {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return n.listeners[event]
}

func (t *Terminal) focusable() []NodeID {
	var ids []NodeID
	for _, h := range t.hits {
		if t.listenerFor(h.node, "click") != nil {
			ids = append(ids, h.node)
		}
	}
	return ids
}

func (t *Terminal) moveFocus(delta int) {
	ids := t.focusable()
	if len(ids) == 0 {
		t.focus = NoNode
		return
	}
	idx := slices.Index(ids, t.focus)
	if idx < 0 {
		if delta > 0 {
			t.focus = ids[0]
		} else {
			t.focus = ids[len(ids)-1]
		}
		return
	}
	t.focus = ids[(idx+delta+len(ids))%len(ids)]
}

// hitTest returns the innermost painted node at (x, y) with a listener
// for event. Descendants are recorded after ancestors, so the last match
// wins.
func (t *Terminal) hitTest(x, y int, event string) NodeID {
	found := NoNode
	for _, h := range t.hits {
		if h.area.Contains(x, y) && t.listenerFor(h.node, event) != nil {
			found = h.node
		}
	}
	return found
}

// pen tracks the flow position while painting.
type pen struct {
	x, y          int
	width, height int
}

func (p *pen) newline() {
	p.x = 0
	p.y++
}

func (t *Terminal) paint() {
	t.screen.Clear()
	t.hits = t.hits[:0]

	w, h := t.screen.Size()
	p := &pen{width: w, height: h}
	t.paintNode(t.container, core.DefaultStyle(), p)

	t.screen.Show()
}

func (t *Terminal) paintNode(id NodeID, inherited core.Style, p *pen) core.Rect {
	n := t.nodes[id]
	style := inherited.Merge(n.style())
	if id == t.focus && id != NoNode {
		style = style.Reverse()
	}

	block := n.kind.IsPrimitive() && blockTags[n.kind.Name()]
	if block && p.x > 0 {
		p.newline()
	}

	var area core.Rect
	slot := -1
	if len(n.listeners) > 0 {
		// Reserve the slot so ancestors precede descendants in hits.
		t.hits = append(t.hits, hitRegion{node: id})
		slot = len(t.hits) - 1
	}

	if n.kind.IsText() {
		area = t.drawText(fmt.Sprint(n.props[vnode.NodeValue]), style, p)
	}
	for _, c := range n.children {
		area = area.Union(t.paintNode(c, style, p))
	}

	if block && p.x > 0 {
		p.newline()
	}
	if slot >= 0 {
		t.hits[slot].area = area
	}
	return area
}

func (t *Terminal) drawText(s string, style core.Style, p *pen) core.Rect {
	var area core.Rect
	ts := convertStyle(style)
	core.Graphemes(s, func(main rune, comb []rune, width int) {
		if main == '\n' {
			p.newline()
			return
		}
		if p.x+width > p.width {
			p.newline()
		}
		if p.y < p.height {
			t.screen.SetContent(p.x, p.y, main, comb, ts)
			area = area.Union(core.Rect{X: p.x, Y: p.y, Width: width, Height: 1})
		}
		p.x += width
	})
	return area
}

// convertStyle converts our Style to tcell.Style.
func convertStyle(s core.Style) tcell.Style {
	style := tcell.StyleDefault

	if !s.Foreground.IsDefault() {
		style = style.Foreground(tcell.NewRGBColor(int32(s.Foreground.R), int32(s.Foreground.G), int32(s.Foreground.B)))
	}
	if !s.Background.IsDefault() {
		style = style.Background(tcell.NewRGBColor(int32(s.Background.R), int32(s.Background.G), int32(s.Background.B)))
	}

	if s.Attributes.Has(core.AttrBold) {
		style = style.Bold(true)
	}
	if s.Attributes.Has(core.AttrDim) {
		style = style.Dim(true)
	}
	if s.Attributes.Has(core.AttrItalic) {
		style = style.Italic(true)
	}
	if s.Attributes.Has(core.AttrUnderline) {
		style = style.Underline(true)
	}
	if s.Attributes.Has(core.AttrReverse) {
		style = style.Reverse(true)
	}

	return style
}
