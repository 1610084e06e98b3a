package core

import (
	"github.com/hashicorp/go-multierror"

	"github.com/go-drift/vtree/pkg/errors"
)

// Commit flushes the effect queue of the pass. Each instance's render
// callbacks run in the order they were queued, instances in the order they
// finished rendering, so children commit before their parents. A failing
// callback abandons the rest of that instance's callbacks and is offered to
// the error boundaries above it; flushing continues with the next instance.
// Errors no boundary accepted are returned together.
func (p *Pass) Commit(root *Descriptor) error {
	p.eng.hooks.beforeCommit(root, p.queue)
	queue := p.queue
	p.queue = nil

	var result *multierror.Error
	for _, inst := range queue {
		callbacks := inst.callbacks
		inst.callbacks = nil
		if err := p.runCallbacks(inst, callbacks); err != nil {
			if err = p.catchError(err, inst.descriptor, nil); err != nil {
				p.isolate(err)
				result = multierror.Append(result, unwrapUnhandled(err))
			}
		}
	}
	return result.ErrorOrNil()
}

func (p *Pass) runCallbacks(inst *Instance, callbacks []func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newRenderError(inst.descriptor, nil, errors.PhaseCommit, errors.KindCommit, r)
		}
	}()
	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// ApplyRef attaches value to ref. A failing ref is treated like a failing
// commit callback of owner.
func (p *Pass) ApplyRef(ref Ref, value any, owner *Descriptor) {
	if err := applyRef(ref, value, owner); err != nil {
		if err = p.catchError(err, owner, nil); err != nil {
			p.isolate(err)
		}
	}
}

func applyRef(ref Ref, value any, owner *Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newRenderError(owner, nil, errors.PhaseRef, errors.KindRef, r)
		}
	}()
	ref.Apply(value)
	return nil
}
