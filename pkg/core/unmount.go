package core

import (
	"github.com/hashicorp/go-multierror"

	"github.com/go-drift/vtree/pkg/errors"
	"github.com/go-drift/vtree/pkg/host"
)

// Unmount tears down the subtree of d. Refs are detached, instances run
// their teardown chain and WillUnmount before their children, and host
// nodes are removed once per subtree: a host descriptor removes its own node
// and its descendants skip removal. Errors raised by component code are
// offered to the boundaries above parent; those no boundary accepted are
// recorded on the pass and returned.
func (p *Pass) Unmount(d, parent *Descriptor, skipRemove bool) error {
	var result *multierror.Error
	p.unmount(d, parent, skipRemove, &result)
	return result.ErrorOrNil()
}

func (p *Pass) unmount(d, parent *Descriptor, skipRemove bool, result **multierror.Error) {
	p.eng.hooks.beforeUnmount(d)

	if ref := d.ref; ref != nil {
		obj, isObject := ref.(*RefObject)
		if !isObject || obj.Current == nil || sameValue(obj.Current, refValue(d)) {
			p.fail(applyRef(ref, nil, d), parent, result)
		}
	}

	var own host.Node
	if !skipRemove && d.node != nil && d.kind != KindComponent {
		own = d.node
		skipRemove = true
	}
	d.node = nil
	d.takeNextNode()

	if inst := d.instance; inst != nil && inst.phase != PhaseUnmounted {
		for _, fn := range inst.runTeardown() {
			p.fail(p.safely(d, errors.PhaseWillUnmount, fn), parent, result)
		}
		if wu, ok := inst.component.(WillUnmounter); ok {
			p.fail(p.safely(d, errors.PhaseWillUnmount, wu.WillUnmount), parent, result)
		}
		inst.base = nil
		inst.hostParent = nil
		inst.dirty = false
		inst.phase = PhaseUnmounted
	}

	for _, child := range d.children {
		if child != nil {
			p.unmount(child, parent, skipRemove, result)
		}
	}

	if own != nil {
		host.Remove(own)
	}
}

func (p *Pass) safely(d *Descriptor, phase string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newRenderError(d, nil, phase, errors.KindUnmount, r)
		}
	}()
	fn()
	return nil
}

// fail routes err to the boundaries above at and records it if none
// accepted it.
func (p *Pass) fail(err error, at *Descriptor, result **multierror.Error) {
	if err == nil {
		return
	}
	if err = p.catchError(err, at, nil); err != nil {
		p.isolate(err)
		*result = multierror.Append(*result, unwrapUnhandled(err))
	}
}
