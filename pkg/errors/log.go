package errors

import (
	"github.com/hashicorp/go-hclog"
)

// LogHandler is an ErrorHandler that writes errors through an hclog.Logger.
type LogHandler struct {
	// Logger receives the entries. A nil Logger logs to stderr under the
	// name "vtree".
	Logger hclog.Logger
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

func (h *LogHandler) logger() hclog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return hclog.New(&hclog.LoggerOptions{Name: "vtree", Level: hclog.Warn})
}

// HandleError logs a TreeError.
func (h *LogHandler) HandleError(err *TreeError) {
	if err == nil {
		return
	}
	args := []any{"op", err.Op, "kind", err.Kind.String(), "error", err.Err}
	if err.Path != "" {
		args = append(args, "path", err.Path)
	}
	if h.Verbose && err.StackTrace != "" {
		args = append(args, "stack", err.StackTrace)
	}
	h.logger().Error("vtree error", args...)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	args := []any{"value", err.Value}
	if err.Op != "" {
		args = append(args, "op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		args = append(args, "stack", err.StackTrace)
	}
	h.logger().Error("vtree panic", args...)
}

// HandleRenderError logs a RenderError.
func (h *LogHandler) HandleRenderError(err *RenderError) {
	if err == nil {
		return
	}
	args := []any{"component", err.Component, "phase", err.Phase, "error", err.Error()}
	if err.Previous != "" {
		args = append(args, "previous", err.Previous)
	}
	if h.Verbose && err.StackTrace != "" {
		args = append(args, "stack", err.StackTrace)
	}
	h.logger().Error("component failure", args...)
}
