// Package errors provides structured error handling for the vtree reconciler.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindRender indicates a failure while rendering a component.
	KindRender
	// KindLifecycle indicates a failure inside a lifecycle hook.
	KindLifecycle
	// KindCommit indicates a failure in a queued post-commit callback.
	KindCommit
	// KindRef indicates a failure while applying a ref.
	KindRef
	// KindUnmount indicates a failure during subtree teardown.
	KindUnmount
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindScene indicates a malformed scene document.
	KindScene
)

func (k ErrorKind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindLifecycle:
		return "lifecycle"
	case KindCommit:
		return "commit"
	case KindRef:
		return "ref"
	case KindUnmount:
		return "unmount"
	case KindPanic:
		return "panic"
	case KindScene:
		return "scene"
	default:
		return "unknown"
	}
}

// TreeError represents a structured error outside component code, such as
// a malformed scene document or a misconfigured root.
type TreeError struct {
	// Op is the operation that failed (e.g., "scene.Decode").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Path locates the failing node, if applicable.
	Path string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *TreeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s [%s] path=%s: %v", e.Op, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *TreeError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.Scheduler.Flush").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Lifecycle phases recorded on a RenderError.
const (
	PhaseRender        = "render"
	PhaseDerivedState  = "derived-state"
	PhaseWillMount     = "will-mount"
	PhaseReceiveProps  = "will-receive-props"
	PhaseShouldUpdate  = "should-update"
	PhaseWillUpdate    = "will-update"
	PhaseSnapshot      = "snapshot"
	PhaseChildContext  = "child-context"
	PhaseCommit        = "commit"
	PhaseRef           = "ref"
	PhaseWillUnmount   = "will-unmount"
	PhaseErrorBoundary = "error-boundary"
)

// RenderError represents a failure raised by component code while the
// reconciler was rendering, committing, or tearing down a subtree.
type RenderError struct {
	// Component is the display name of the component that failed.
	Component string
	// Previous is the display name of the descriptor previously at this
	// position, empty on first mount.
	Previous string
	// Kind categorizes the failure (render, lifecycle, commit, ref, unmount).
	Kind ErrorKind
	// Phase names the lifecycle step that failed.
	Phase string
	// Recovered is the panic value (nil for returned errors).
	Recovered any
	// Err is the underlying error (nil for panics with non-error values).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error in %s (%s): %v", e.Component, e.Phase, e.Err)
	}
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s (%s): %v", e.Component, e.Phase, e.Recovered)
	}
	return fmt.Sprintf("unknown error in %s (%s)", e.Component, e.Phase)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by the reconciler.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *TreeError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleRenderError is called when component code fails.
	HandleRenderError(err *RenderError)
}
