package testing

import (
	"fmt"
	"reflect"

	verrors "github.com/go-drift/vtree/pkg/errors"
)

// Fire calls the handler stored under the attribute named event (for
// example "onclick") on the host node of the first descriptor matched by
// finder, then flushes renders the handler scheduled.
//
// Arguments are passed to the handler positionally; missing and nil
// arguments become zero values. A panicking handler is reported and
// returned as a *errors.PanicError.
func (t *Tester) Fire(finder Finder, event string, args ...any) error {
	result := t.Find(finder)
	if !result.Exists() {
		return fmt.Errorf("Fire: finder matched no descriptors: %s", finder.Description())
	}
	node := result.Node()
	if node == nil {
		return fmt.Errorf("Fire: descriptor has no host node: %s", finder.Description())
	}
	handler, ok := node.Attribute(event)
	if !ok || handler == nil {
		return fmt.Errorf("Fire: no %q handler on %s", event, finder.Description())
	}
	fn := reflect.ValueOf(handler)
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("Fire: %q on %s is %T, not a function", event, finder.Description(), handler)
	}
	if err := call(fn, args); err != nil {
		return err
	}
	return t.Flush()
}

func call(fn reflect.Value, args []any) (err error) {
	ft := fn.Type()
	if ft.IsVariadic() {
		return fmt.Errorf("Fire: variadic handlers are not supported")
	}
	if len(args) > ft.NumIn() {
		return fmt.Errorf("Fire: handler takes %d arguments, got %d", ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, ft.NumIn())
	for i := range in {
		pt := ft.In(i)
		if i >= len(args) || args[i] == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		v := reflect.ValueOf(args[i])
		if !v.Type().AssignableTo(pt) {
			return fmt.Errorf("Fire: argument %d is %s, handler wants %s", i, v.Type(), pt)
		}
		in[i] = v
	}

	defer verrors.RecoverWithCallback("testing.Tester.Fire", func(pe *verrors.PanicError) { err = pe })
	fn.Call(in)
	return nil
}
