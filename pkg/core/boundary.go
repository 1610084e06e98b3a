package core

import (
	"sync"
)

// FallbackBuilder renders the replacement for a subtree that failed. It
// receives the captured error and the boundary's props.
type FallbackBuilder func(err error, props Props) any

var (
	fallbackBuilder   FallbackBuilder = DefaultFallbackBuilder
	fallbackBuilderMu sync.RWMutex
)

// SetFallbackBuilder configures the builder used by boundaries declared
// without their own. Pass nil to restore the default builder.
func SetFallbackBuilder(builder FallbackBuilder) {
	fallbackBuilderMu.Lock()
	defer fallbackBuilderMu.Unlock()
	if builder == nil {
		fallbackBuilder = DefaultFallbackBuilder
	} else {
		fallbackBuilder = builder
	}
}

// GetFallbackBuilder returns the current fallback builder.
func GetFallbackBuilder() FallbackBuilder {
	fallbackBuilderMu.RLock()
	defer fallbackBuilderMu.RUnlock()
	return fallbackBuilder
}

// DefaultFallbackBuilder renders the error message as text.
func DefaultFallbackBuilder(err error, _ Props) any {
	return Text(err.Error())
}

// boundaryErrorKey is the state entry holding the captured error.
const boundaryErrorKey = "error"

// Boundary declares an error boundary. It renders its children until a
// descendant fails, then renders fallback instead. A nil fallback uses the
// builder installed with SetFallbackBuilder at render time.
func Boundary(name string, fallback FallbackBuilder) *ComponentType {
	return &ComponentType{
		Name: name,
		New: func() Component {
			return &boundary{fallback: fallback}
		},
		DerivedStateFromError: func(err error) State {
			return State{boundaryErrorKey: err}
		},
	}
}

type boundary struct {
	Base
	fallback FallbackBuilder
}

func (b *boundary) Render(props Props, state State, _ any) any {
	err, _ := state[boundaryErrorKey].(error)
	if err == nil {
		return props[ChildrenProp]
	}
	build := b.fallback
	if build == nil {
		build = GetFallbackBuilder()
	}
	return build(err, props)
}

// Reset clears the captured error so the children render again.
func (b *boundary) Reset() {
	b.SetState(State{boundaryErrorKey: nil})
}

// CapturedError returns the error the boundary instance is showing a
// fallback for, or nil.
func CapturedError(inst *Instance) error {
	if inst == nil {
		return nil
	}
	err, _ := inst.State()[boundaryErrorKey].(error)
	return err
}

// ResetBoundary clears the error captured by a boundary instance and
// schedules its children to render again.
func ResetBoundary(inst *Instance) {
	if b, ok := inst.Component().(*boundary); ok {
		b.Reset()
	}
}
