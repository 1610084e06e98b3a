package core

import (
	"maps"
	"slices"

	"github.com/go-drift/vtree/pkg/host"
)

// State is the mutable data of a class-shaped component.
type State map[string]any

// Component is the behavior backing a composite descriptor. Render returns a
// *Descriptor, a []any of children, a string or number, or nil.
//
// Class-shaped components opt into lifecycle hooks by implementing the
// optional interfaces below, and gain SetState and friends by embedding Base.
type Component interface {
	Render(props Props, state State, context any) any
}

// WillMounter runs before the first render.
type WillMounter interface {
	WillMount()
}

// DidMounter runs during commit after the first render.
type DidMounter interface {
	DidMount()
}

// PropsReceiver runs before an update when the props map changed.
type PropsReceiver interface {
	WillReceiveProps(next Props, context any)
}

// UpdateGate decides whether an update renders. Returning false keeps the
// previous output.
type UpdateGate interface {
	ShouldUpdate(next Props, nextState State, context any) bool
}

// WillUpdater runs before an update renders.
type WillUpdater interface {
	WillUpdate(next Props, nextState State, context any)
}

// DidUpdater runs during commit after an update rendered.
type DidUpdater interface {
	DidUpdate(prevProps Props, prevState State, snapshot any)
}

// SnapshotTaker captures a value after render and before children are
// diffed. The value is handed to DidUpdate.
type SnapshotTaker interface {
	SnapshotBeforeUpdate(prevProps Props, prevState State) any
}

// WillUnmounter runs when the instance is torn down.
type WillUnmounter interface {
	WillUnmount()
}

// ChildContextProvider contributes entries visible to every descendant.
type ChildContextProvider interface {
	ChildContext() map[any]any
}

// ErrorCatcher is notified of errors thrown below it. Calling SetState from
// DidCatch marks the error as handled.
type ErrorCatcher interface {
	DidCatch(err error)
}

// ComponentType identifies a composite. Two descriptors share a tree
// position only if their types are the same pointer.
type ComponentType struct {
	// Name is used in errors and debug output.
	Name string
	// New constructs a class-shaped component. Nil for function components.
	New func() Component
	// Func renders a function component. Ignored when New is set.
	Func func(props Props, context any) any
	// ContextType selects the channel whose nearest value is passed as the
	// context argument. When nil, the context argument is the *ContextMap.
	ContextType *Channel
	// DerivedStateFromProps runs on every pass before any hook. Its result
	// is merged into the pending state.
	DerivedStateFromProps func(props Props, state State) State
	// DerivedStateFromError turns a descendant error into a state update,
	// making the instance an error boundary.
	DerivedStateFromError func(err error) State
	// DefaultProps fill in props missing from a descriptor.
	DefaultProps Props

	channel *Channel
}

func (t *ComponentType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "Anonymous"
}

// Func declares a function component.
func Func(name string, render func(props Props, context any) any) *ComponentType {
	return &ComponentType{Name: name, Func: render}
}

// Class declares a class-shaped component.
func Class(name string, create func() Component) *ComponentType {
	return &ComponentType{Name: name, New: create}
}

// Fragment groups children without contributing a host node.
var Fragment = &ComponentType{
	Name: "Fragment",
	Func: func(props Props, _ any) any {
		return props[ChildrenProp]
	},
}

type funcComponent struct {
	render func(props Props, context any) any
}

func (f funcComponent) Render(props Props, _ State, context any) any {
	return f.render(props, context)
}

// Phase is the lifecycle state of an Instance.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseMounted
	PhaseUpdating
	PhaseUnmounted
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseMounted:
		return "mounted"
	case PhaseUpdating:
		return "updating"
	case PhaseUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Instance is the stateful object backing a composite descriptor across
// passes. One instance exists per stable tree position.
type Instance struct {
	typ       *ComponentType
	component Component
	eng       *engine

	props     Props
	state     State
	nextState State
	context   any
	legacy    *ContextMap

	phase     Phase
	dirty     bool
	force     bool
	callbacks []func()

	base       host.Node
	hostParent host.Node
	svg        bool
	descriptor *Descriptor

	pendingError    error
	processingError error
	teardown        []func()
}

// Type returns the component type of the instance.
func (i *Instance) Type() *ComponentType { return i.typ }

// Component returns the component value, e.g. for type assertions in tests.
func (i *Instance) Component() Component { return i.component }

// Props returns the committed props.
func (i *Instance) Props() Props { return i.props }

// State returns the committed state.
func (i *Instance) State() State { return i.state }

// Context returns the resolved context value.
func (i *Instance) Context() any { return i.context }

// Phase returns the lifecycle phase.
func (i *Instance) Phase() Phase { return i.phase }

// Base returns the first host node of the rendered subtree.
func (i *Instance) Base() host.Node { return i.base }

// Descriptor returns the descriptor the instance last rendered for.
func (i *Instance) Descriptor() *Descriptor { return i.descriptor }

// Dirty reports whether a re-render is pending.
func (i *Instance) Dirty() bool { return i.dirty }

// PendingError returns the error captured from a descendant, if any. It is
// cleared once the instance has rendered with it.
func (i *Instance) PendingError() error {
	if i.pendingError != nil {
		return i.pendingError
	}
	return i.processingError
}

func (i *Instance) next() State {
	if i.nextState != nil {
		return i.nextState
	}
	return i.state
}

func (i *Instance) ensureNext() State {
	if i.nextState == nil {
		i.nextState = maps.Clone(i.state)
		if i.nextState == nil {
			i.nextState = State{}
		}
	}
	return i.nextState
}

func (i *Instance) commitState() {
	if i.nextState != nil {
		i.state = i.nextState
		i.nextState = nil
	}
}

// SetState merges update into the pending state and schedules a re-render.
// callback runs during the commit of that re-render. Updates on an unmounted
// instance are dropped.
//
// SetState is not safe for concurrent use. It must be called from the
// goroutine that renders and flushes the root; other goroutines hand the
// call over with Scheduler.Dispatch.
func (i *Instance) SetState(update State, callback func()) {
	i.SetStateFunc(func(State, Props) State { return update }, callback)
}

// SetStateFunc is like SetState but computes the update from a copy of the
// pending state and the current props.
func (i *Instance) SetStateFunc(update func(state State, props Props) State, callback func()) {
	if i.phase == PhaseUnmounted {
		return
	}
	pending := i.ensureNext()
	changes := update(maps.Clone(pending), i.props)
	if changes == nil {
		return
	}
	maps.Copy(pending, changes)
	if i.descriptor != nil {
		if callback != nil {
			i.callbacks = append(i.callbacks, callback)
		}
		i.enqueueRender()
	}
}

// ForceUpdate schedules a re-render that bypasses ShouldUpdate. Like
// SetState it must be called from the flushing goroutine.
func (i *Instance) ForceUpdate(callback func()) {
	if i.phase == PhaseUnmounted || i.descriptor == nil {
		return
	}
	i.force = true
	if callback != nil {
		i.callbacks = append(i.callbacks, callback)
	}
	i.enqueueRender()
}

func (i *Instance) enqueueRender() {
	if i.dirty {
		return
	}
	i.dirty = true
	if i.eng != nil && i.eng.scheduler != nil {
		i.eng.scheduler.Schedule(i)
	}
}

// onTeardown registers fn to run before WillUnmount. The returned function
// unregisters it.
func (i *Instance) onTeardown(fn func()) func() {
	index := len(i.teardown)
	i.teardown = append(i.teardown, fn)
	return func() {
		if index < len(i.teardown) {
			i.teardown[index] = nil
		}
	}
}

// runTeardown returns the registered cleanups, last registered first.
func (i *Instance) runTeardown() []func() {
	fns := slices.DeleteFunc(slices.Clone(i.teardown), func(fn func()) bool { return fn == nil })
	i.teardown = nil
	slices.Reverse(fns)
	return fns
}

// Base gives class-shaped components access to their Instance. Embed it in
// the component struct:
//
//	type counter struct {
//	    core.Base
//	}
//
//	func (c *counter) Render(props core.Props, state core.State, _ any) any {
//	    return core.Text(fmt.Sprint(state["count"]))
//	}
type Base struct {
	inst *Instance
}

func (b *Base) bindInstance(inst *Instance) { b.inst = inst }

// Instance returns the instance backing the component. Nil before mount.
func (b *Base) Instance() *Instance { return b.inst }

// Props returns the committed props.
func (b *Base) Props() Props {
	if b.inst == nil {
		return nil
	}
	return b.inst.props
}

// State returns the committed state.
func (b *Base) State() State {
	if b.inst == nil {
		return nil
	}
	return b.inst.state
}

// Context returns the resolved context value.
func (b *Base) Context() any {
	if b.inst == nil {
		return nil
	}
	return b.inst.context
}

// SetState merges update into the pending state and schedules a re-render.
func (b *Base) SetState(update State) {
	if b.inst != nil {
		b.inst.SetState(update, nil)
	}
}

// ForceUpdate schedules a re-render that bypasses ShouldUpdate.
func (b *Base) ForceUpdate() {
	if b.inst != nil {
		b.inst.ForceUpdate(nil)
	}
}

// OnUnmount registers cleanup to run when the instance unmounts, before
// WillUnmount. Cleanups run last registered first. The returned function
// unregisters cleanup. On an unmounted instance cleanup runs immediately.
func (b *Base) OnUnmount(cleanup func()) func() {
	if cleanup == nil || b.inst == nil {
		return func() {}
	}
	if b.inst.phase == PhaseUnmounted {
		cleanup()
		return func() {}
	}
	return b.inst.onTeardown(cleanup)
}

type instanceBinder interface {
	bindInstance(*Instance)
}
