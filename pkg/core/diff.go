package core

import (
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/go-drift/vtree/pkg/errors"
	"github.com/go-drift/vtree/pkg/host"
)

// ChildReconciler reconciles an ordered list of child descriptors against
// the children rendered for the same parent in the previous pass.
type ChildReconciler interface {
	// DiffChildren diffs rendered against oldParent's children, storing the
	// result on newParent and leaving host nodes placed under parent.
	DiffChildren(p *Pass, parent host.Node, rendered []any, newParent, oldParent *Descriptor,
		ctx *ContextMap, svg bool, excess []host.Node, anchor Anchor) error
	// PlaceChild moves node into position before anchor if needed and
	// returns the anchor for the next sibling.
	PlaceChild(parent host.Node, child, oldChild *Descriptor, oldSiblings []*Descriptor,
		node, anchor host.Node) host.Node
}

// ElementDiffer reconciles one host element or text node.
type ElementDiffer interface {
	// DiffElementNodes creates or adopts the host node for d, applies
	// attribute or text changes, and recurses into children. It returns the
	// host node now bound to d.
	DiffElementNodes(p *Pass, node host.Node, d, old *Descriptor, ctx *ContextMap,
		svg bool, excess []host.Node) (host.Node, error)
}

// Anchor is the host node before which new nodes are inserted. Auto asks the
// child reconciler to derive it from the previous children or the excess
// host children.
type Anchor struct {
	Node host.Node
	Auto bool
}

// AutoAnchor resolves the anchor from the previous pass.
var AutoAnchor = Anchor{Auto: true}

// At anchors insertion before n. A nil n appends.
func At(n host.Node) Anchor {
	return Anchor{Node: n}
}

// engine holds the collaborators shared by every pass of one root.
type engine struct {
	doc       host.Document
	children  ChildReconciler
	elements  ElementDiffer
	hooks     *Hooks
	scheduler *Scheduler
	logger    hclog.Logger
}

func (e *engine) newPass(hydrating bool) *Pass {
	return &Pass{eng: e, hydrating: hydrating}
}

// Pass is the state of one top-level reconciliation: the effect queue, the
// hydration flag, and the errors isolated so far. Collaborators receive the
// pass so they can recurse into the engine.
type Pass struct {
	eng       *engine
	queue     []*Instance
	hydrating bool
	isolated  *multierror.Error
}

// Document returns the document used to create host nodes.
func (p *Pass) Document() host.Document { return p.eng.doc }

// Hydrating reports whether existing host children are being adopted.
func (p *Pass) Hydrating() bool { return p.hydrating }

// Queue returns the instances with pending callbacks, in insertion order.
func (p *Pass) Queue() []*Instance { return p.queue }

// Err returns the errors isolated during the pass, or nil.
func (p *Pass) Err() error { return p.isolated.ErrorOrNil() }

func (p *Pass) isolate(err error) {
	p.isolated = multierror.Append(p.isolated, unwrapUnhandled(err))
}

// DiffChildren delegates to the configured ChildReconciler.
func (p *Pass) DiffChildren(parent host.Node, rendered []any, newParent, oldParent *Descriptor,
	ctx *ContextMap, svg bool, excess []host.Node, anchor Anchor) error {
	return p.eng.children.DiffChildren(p, parent, rendered, newParent, oldParent, ctx, svg, excess, anchor)
}

// unhandledError marks an error no boundary accepted. It has already been
// reported and only needs to travel up to the entry point.
type unhandledError struct {
	err error
}

func (u *unhandledError) Error() string { return u.err.Error() }
func (u *unhandledError) Unwrap() error { return u.err }

func unwrapUnhandled(err error) error {
	if u, ok := err.(*unhandledError); ok {
		return u.err
	}
	return err
}

// abort reports a pass that an unhandled error stopped before commit and
// returns the error for the caller.
func (e *engine) abort(op, component string, err error) error {
	err = unwrapUnhandled(err)
	e.logger.Error("pass aborted", "op", op, "component", component, "error", err)
	kind := errors.KindRender
	if renderErr, ok := err.(*errors.RenderError); ok {
		kind = renderErr.Kind
	}
	errors.Report(&errors.TreeError{Op: op, Kind: kind, Err: err, Path: component})
	return err
}

// Diff reconciles d against old, the descriptor previously at this
// position (nil on first mount), and returns the host node bound to d.
// Forged descriptors are skipped. Errors raised by component code are
// routed to the nearest error boundary; an error that no boundary accepts
// is returned and aborts the pass.
func (p *Pass) Diff(parent host.Node, d, old *Descriptor, ctx *ContextMap, svg bool,
	excess []host.Node, anchor Anchor) (node host.Node, err error) {
	if !d.valid() {
		return nil, nil
	}
	p.eng.hooks.beforeDiff(d)

	defer func() {
		if r := recover(); r != nil {
			err = newRenderError(d, old, errors.PhaseRender, errors.KindRender, r)
		}
		if err != nil {
			d.original = nil
			if err = p.catchError(err, d, old); err != nil {
				node = nil
				return
			}
			d.node = old.Node()
			d.children = old.Rendered()
			node = d.node
		}
	}()

	d.takeNextNode()
	switch {
	case d.kind == KindComponent:
		err = p.diffComponent(parent, d, old, ctx, svg, excess, anchor)
	case excess == nil && sameRender(d, old):
		d.children = old.children
		d.node = old.node
		for _, child := range d.children {
			if child != nil {
				child.parent = d
			}
		}
	default:
		d.node, err = p.eng.elements.DiffElementNodes(p, old.Node(), d, old, ctx, svg, excess)
	}
	if err != nil {
		return nil, err
	}
	p.eng.hooks.afterDiff(d)
	return d.node, nil
}

func (p *Pass) diffComponent(parent host.Node, d, old *Descriptor, ctx *ContextMap, svg bool,
	excess []host.Node, anchor Anchor) (err error) {
	phase := errors.PhaseRender
	defer func() {
		if r := recover(); r != nil {
			err = newRenderError(d, old, phase, phaseKind(phase), r)
		}
	}()

	t := d.typ
	newProps := d.props
	componentContext, provider := resolveContext(t, ctx)

	var inst *Instance
	isNew := false
	clearProcessing := false
	if prev := old.Instance(); prev != nil {
		inst = prev
		d.instance = inst
		inst.processingError = inst.pendingError
		clearProcessing = inst.pendingError != nil
	} else {
		inst = p.eng.instantiate(t)
		d.instance = inst
		if provider != nil {
			if s, ok := provider.component.(subscriber); ok {
				s.Subscribe(inst)
			}
		}
		inst.props = newProps
		if inst.state == nil {
			inst.state = State{}
		}
		inst.context = componentContext
		inst.legacy = ctx
		inst.dirty = true
		isNew = true
	}
	comp := inst.component

	if t.DerivedStateFromProps != nil {
		phase = errors.PhaseDerivedState
		pending := inst.ensureNext()
		for k, v := range t.DerivedStateFromProps(newProps, pending) {
			pending[k] = v
		}
	}

	oldProps := inst.props
	oldState := inst.state
	var snapshot any

	if isNew {
		if wm, ok := comp.(WillMounter); ok && t.DerivedStateFromProps == nil {
			phase = errors.PhaseWillMount
			wm.WillMount()
		}
		if dm, ok := comp.(DidMounter); ok {
			inst.callbacks = append(inst.callbacks, dm.DidMount)
		}
	} else {
		inst.phase = PhaseUpdating
		if rp, ok := comp.(PropsReceiver); ok && t.DerivedStateFromProps == nil && !sameProps(newProps, oldProps) {
			phase = errors.PhaseReceiveProps
			rp.WillReceiveProps(newProps, componentContext)
		}

		skip := false
		if gate, ok := comp.(UpdateGate); ok && !inst.force {
			phase = errors.PhaseShouldUpdate
			skip = !gate.ShouldUpdate(newProps, inst.next(), componentContext)
		}
		same := d.original != nil && d.original == old.original
		if skip || same {
			inst.props = newProps
			inst.commitState()
			if !same {
				inst.dirty = false
			}
			inst.descriptor = d
			inst.hostParent = parent
			inst.phase = PhaseMounted
			d.node = old.node
			d.children = old.children
			if len(inst.callbacks) > 0 {
				p.queue = append(p.queue, inst)
			}
			for _, child := range d.children {
				if child != nil {
					child.parent = d
				}
			}
			at := anchor.Node
			if anchor.Auto {
				at = old.node
			}
			if parent != nil {
				d.setNextNode(p.reorderChildren(d, at, parent, make(map[*Descriptor]struct{})))
			}
			return nil
		}

		if wu, ok := comp.(WillUpdater); ok {
			phase = errors.PhaseWillUpdate
			wu.WillUpdate(newProps, inst.next(), componentContext)
		}
		if du, ok := comp.(DidUpdater); ok {
			inst.callbacks = append(inst.callbacks, func() {
				du.DidUpdate(oldProps, oldState, snapshot)
			})
		}
	}

	inst.context = componentContext
	inst.legacy = ctx
	inst.props = newProps
	inst.commitState()

	p.eng.hooks.afterRender(d)

	inst.dirty = false
	inst.force = false
	inst.descriptor = d
	inst.hostParent = parent
	inst.svg = svg

	phase = errors.PhaseRender
	out := comp.Render(inst.props, inst.state, inst.context)
	inst.commitState()

	if cp, ok := comp.(ChildContextProvider); ok {
		phase = errors.PhaseChildContext
		ctx = ctx.With(cp.ChildContext())
	}

	if st, ok := comp.(SnapshotTaker); ok && !isNew {
		phase = errors.PhaseSnapshot
		snapshot = st.SnapshotBeforeUpdate(oldProps, oldState)
	}

	if top, ok := out.(*Descriptor); ok && top != nil && top.typ == Fragment && top.key == nil {
		out = top.props[ChildrenProp]
	}

	phase = errors.PhaseRender
	if err := p.DiffChildren(parent, toChildList(out), d, old, ctx, svg, excess, anchor); err != nil {
		return err
	}

	inst.base = d.node
	if len(inst.callbacks) > 0 {
		p.queue = append(p.queue, inst)
	}
	if clearProcessing {
		inst.pendingError = nil
		inst.processingError = nil
	}
	inst.phase = PhaseMounted
	return nil
}

// reorderChildren places the host nodes of a composite whose render was
// skipped, since its siblings may have moved. It returns the anchor for the
// node after the composite. visited bounds the walk over parent links.
func (p *Pass) reorderChildren(d *Descriptor, anchor, parent host.Node, visited map[*Descriptor]struct{}) host.Node {
	if _, seen := visited[d]; seen {
		return anchor
	}
	visited[d] = struct{}{}
	for _, child := range d.children {
		if child == nil {
			continue
		}
		child.parent = d
		if child.kind == KindComponent {
			anchor = p.reorderChildren(child, anchor, parent, visited)
			continue
		}
		if child.node != nil {
			anchor = p.eng.children.PlaceChild(parent, child, child, d.children, child.node, anchor)
		}
	}
	return anchor
}

func (e *engine) instantiate(t *ComponentType) *Instance {
	inst := &Instance{typ: t, eng: e}
	if t.New != nil {
		inst.component = t.New()
	} else {
		render := t.Func
		if render == nil {
			render = func(Props, any) any { return nil }
		}
		inst.component = funcComponent{render: render}
	}
	if b, ok := inst.component.(instanceBinder); ok {
		b.bindInstance(inst)
	}
	return inst
}

// catchError reports err and offers it to the error boundaries above d. It
// returns nil when a boundary accepted the error.
func (p *Pass) catchError(err error, d, old *Descriptor) error {
	if u, ok := err.(*unhandledError); ok {
		return u
	}
	renderErr, ok := err.(*errors.RenderError)
	if !ok {
		renderErr = newRenderError(d, old, errors.PhaseRender, errors.KindRender, err)
		err = renderErr
	}
	p.eng.hooks.error(err, d, old)
	errors.ReportRenderError(renderErr)
	if d == nil {
		return &unhandledError{err: err}
	}
	for ancestor := d.parent; ancestor != nil; ancestor = ancestor.parent {
		inst := ancestor.instance
		if inst == nil || inst.processingError != nil {
			continue
		}
		handled, boundaryErr := inst.capture(err)
		if boundaryErr != nil {
			err = boundaryErr
			continue
		}
		if handled {
			inst.pendingError = err
			return nil
		}
	}
	p.eng.logger.Error("unhandled component error", "component", d.Name(), "error", err)
	return &unhandledError{err: err}
}

// capture offers err to the instance. It reports whether the instance
// scheduled a re-render in response, and any error the boundary raised. A
// boundary that handled the error re-renders past its ShouldUpdate.
func (i *Instance) capture(err error) (handled bool, boundaryErr error) {
	if i.typ.DerivedStateFromError == nil {
		if _, ok := i.component.(ErrorCatcher); !ok {
			return false, nil
		}
	}
	defer func() {
		if r := recover(); r != nil {
			boundaryErr = newRenderError(i.descriptor, nil, errors.PhaseErrorBoundary, errors.KindLifecycle, r)
		}
	}()
	if derive := i.typ.DerivedStateFromError; derive != nil {
		i.SetState(derive(err), nil)
		handled = i.dirty
	}
	if catcher, ok := i.component.(ErrorCatcher); ok {
		catcher.DidCatch(err)
		handled = i.dirty
	}
	if handled {
		i.force = true
	}
	return handled, nil
}

func newRenderError(d, old *Descriptor, phase string, kind errors.ErrorKind, r any) *errors.RenderError {
	renderErr := errors.FromRecovered(d.Name(), phase, kind, r)
	if old != nil && renderErr.Previous == "" {
		renderErr.Previous = old.Name()
	}
	if !DebugMode {
		renderErr.StackTrace = ""
	}
	return renderErr
}

func phaseKind(phase string) errors.ErrorKind {
	if phase == errors.PhaseRender {
		return errors.KindRender
	}
	return errors.KindLifecycle
}
