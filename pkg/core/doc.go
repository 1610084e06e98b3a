// Package core reconciles immutable descriptor trees against a live host
// tree.
//
// A render describes the desired UI as a tree of descriptors built with H,
// Text, Create, and Frag. The engine diffs it against the tree rendered
// last time at the same root and applies the smallest set of host mutations
// that makes the host tree match, while keeping component instances alive
// across renders.
//
// # Components
//
// Function components render from props and context:
//
//	greeting := core.Func("Greeting", func(props core.Props, _ any) any {
//	    return core.H("p", nil, "Hello, ", props["name"])
//	})
//
// Class-shaped components embed Base and opt into lifecycle hooks by
// implementing the optional interfaces (DidMounter, UpdateGate, ...):
//
//	type clock struct {
//	    core.Base
//	}
//
//	func (c *clock) DidMount() { c.SetState(core.State{"now": time.Now()}) }
//
//	func (c *clock) Render(_ core.Props, state core.State, _ any) any {
//	    return core.Text(fmt.Sprint(state["now"]))
//	}
//
// # Rendering
//
// A Root owns one host container:
//
//	root := core.NewRoot(doc, container)
//	err := root.Render(core.Create(greeting, core.Props{"name": "Ada"}))
//
// State updates are queued on the root's Scheduler and applied by Flush.
// Render callbacks (DidMount, DidUpdate, SetState callbacks) run once per
// pass after all host mutations, children before parents.
//
// # Context
//
// CreateChannel returns a Provider and Consumer pair. A component whose
// ComponentType.ContextType names a channel receives the value of the
// nearest enclosing Provider as its context argument and re-renders when
// that value changes, even if components in between skip their update.
//
// # Errors
//
// Panics and errors raised by component code are converted to
// *errors.RenderError and offered to the nearest error boundary above the
// failing component (see Boundary). An error no boundary accepts aborts
// the render and is returned by Render.
package core
