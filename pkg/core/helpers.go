package core

// Stateful declares an inline stateful component using closures. Use it for
// small self-contained components that need no lifecycle hooks:
//
//	counter := core.Stateful("Counter",
//	    func(core.Props) int { return 0 },
//	    func(count int, props core.Props, setState func(func(int) int)) any {
//	        return core.H("button", core.Props{
//	            "onclick": func() { setState(func(c int) int { return c + 1 }) },
//	        }, count)
//	    },
//	)
//
// The generic parameter is the state type. setState takes a function that
// transforms the current value and schedules a re-render.
//
// For components with lifecycle methods, a ShouldUpdate gate, or several
// state fields, embed [Base] in a named struct and declare it with [Class].
func Stateful[S any](
	name string,
	init func(props Props) S,
	render func(state S, props Props, setState func(func(S) S)) any,
) *ComponentType {
	return Class(name, func() Component {
		return &inlineStateful[S]{initFn: init, renderFn: render}
	})
}

type inlineStateful[S any] struct {
	Base
	value    S
	ready    bool
	initFn   func(Props) S
	renderFn func(state S, props Props, setState func(func(S) S)) any
}

func (s *inlineStateful[S]) WillMount() {
	if s.initFn != nil {
		s.value = s.initFn(s.Props())
	}
	s.ready = true
}

func (s *inlineStateful[S]) Render(props Props, _ State, _ any) any {
	if !s.ready {
		s.WillMount()
	}
	return s.renderFn(s.value, props, s.setState)
}

func (s *inlineStateful[S]) setState(update func(S) S) {
	s.value = update(s.value)
	s.ForceUpdate()
}
