package app

import (
	"fmt"
	"slices"

	"github.com/dshills/tessera/internal/renderer"
	"github.com/dshills/tessera/internal/renderer/vnode"
)

// Counter shows a heading that counts its clicks, starting at 1.
var Counter = vnode.Define("Counter", func(s vnode.Scope, _ vnode.Props) *vnode.Node {
	count, setCount := renderer.UseState(s, 1)

	return vnode.Element("h1", vnode.Props{
		"id":    "counter",
		"bold":  true,
		"color": "#5fafff",
		"onClick": vnode.On(func(vnode.Event) {
			setCount(func(c int) int { return c + 1 })
		}),
	}, "Count: ", count)
})

// todos is the state of TodoList.
type todos struct {
	Items []string
	Next  int
}

// TodoList shows a list that grows with the add button and shrinks when
// an item is clicked.
var TodoList = vnode.Define("TodoList", func(s vnode.Scope, _ vnode.Props) *vnode.Node {
	state, setState := renderer.UseState(s, todos{Items: []string{"render", "commit"}, Next: 1})

	lis := make([]*vnode.Node, 0, len(state.Items))
	for i, item := range state.Items {
		lis = append(lis, vnode.Element("li", vnode.Props{
			"onClick": vnode.On(func(vnode.Event) {
				setState(func(prev todos) todos {
					if i >= len(prev.Items) {
						return prev
					}
					prev.Items = slices.Delete(slices.Clone(prev.Items), i, i+1)
					return prev
				})
			}),
		}, "- ", item))
	}

	add := vnode.Element("div", vnode.Props{
		"id":        "add",
		"underline": true,
		"onClick": vnode.On(func(vnode.Event) {
			setState(func(prev todos) todos {
				return todos{
					Items: append(slices.Clone(prev.Items), fmt.Sprintf("item %d", prev.Next)),
					Next:  prev.Next + 1,
				}
			})
		}),
	}, "[add item]")

	return vnode.Element("section", nil,
		vnode.Element("ul", vnode.Props{"id": "todo"}, lis),
		add,
	)
})

// App is the root component of the demo.
var App = vnode.Define("App", func(vnode.Scope, vnode.Props) *vnode.Node {
	return vnode.Element("div", nil,
		vnode.Element(Counter, nil),
		vnode.Element(TodoList, nil),
		vnode.Element("p", vnode.Props{"color": "gray"}, "tab: focus  enter: click  q: quit"),
	)
})
