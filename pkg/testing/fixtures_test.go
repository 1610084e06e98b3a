package testing

import "github.com/go-drift/vtree/pkg/core"

var counter = core.Stateful("Counter",
	func(props core.Props) int {
		n, _ := props["initial"].(int)
		return n
	},
	func(count int, _ core.Props, setState func(func(int) int)) any {
		return core.H("button", core.Props{
			"onclick": func() { setState(func(c int) int { return c + 1 }) },
			"onadd":   func(n int) { setState(func(c int) int { return c + n }) },
		}, count)
	},
)

var item = core.Func("Item", func(props core.Props, _ any) any {
	return core.H("li", nil, props["label"])
})

func list(labels ...string) *core.Descriptor {
	children := make([]any, 0, len(labels))
	for _, l := range labels {
		children = append(children, core.Create(item, core.Props{"key": l, "label": l}))
	}
	return core.H("ul", nil, children...)
}

// looper schedules another render from every commit.
type looper struct {
	core.Base
	renders int
}

func (l *looper) Render(core.Props, core.State, any) any {
	l.renders++
	return "loop"
}

func (l *looper) DidMount()                           { l.ForceUpdate() }
func (l *looper) DidUpdate(core.Props, core.State, any) { l.ForceUpdate() }

var looperType = core.Class("Looper", func() core.Component { return &looper{} })
