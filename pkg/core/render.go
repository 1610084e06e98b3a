package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/go-drift/vtree/pkg/host"
)

// Option configures a Root.
type Option func(*Root)

// WithHooks installs instrumentation hooks for every pass of the root.
func WithHooks(h *Hooks) Option {
	return func(r *Root) { r.eng.hooks = h }
}

// WithLogger sets the logger used for pass tracing and unhandled errors.
func WithLogger(l hclog.Logger) Option {
	return func(r *Root) {
		if l != nil {
			r.eng.logger = l
		}
	}
}

// WithChildReconciler replaces the default keyed list reconciler.
func WithChildReconciler(c ChildReconciler) Option {
	return func(r *Root) {
		if c != nil {
			r.eng.children = c
		}
	}
}

// WithElementDiffer replaces the default host node differ.
func WithElementDiffer(e ElementDiffer) Option {
	return func(r *Root) {
		if e != nil {
			r.eng.elements = e
		}
	}
}

// WithScheduler shares a scheduler between roots.
func WithScheduler(s *Scheduler) Option {
	return func(r *Root) {
		if s != nil {
			r.eng.scheduler = s
		}
	}
}

// Root renders descriptor trees into one host container. It remembers the
// tree previously rendered into the container, and into any node passed to
// RenderReplacing, so the next render diffs against it.
type Root struct {
	id        string
	container host.Node
	trees     map[host.Node]*Descriptor
	eng       *engine
}

// NewRoot creates a root rendering into container with nodes from doc.
func NewRoot(doc host.Document, container host.Node, opts ...Option) *Root {
	r := &Root{
		id:        uuid.NewString(),
		container: container,
		trees:     make(map[host.Node]*Descriptor),
		eng: &engine{
			doc:       doc,
			children:  DefaultChildReconciler(),
			elements:  DefaultElementDiffer(),
			scheduler: NewScheduler(),
			logger:    hclog.NewNullLogger(),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.eng.logger = r.eng.logger.Named("vtree").With("root", r.id)
	return r
}

// ID returns the unique id of the root.
func (r *Root) ID() string { return r.id }

// Container returns the host node the root renders into.
func (r *Root) Container() host.Node { return r.container }

// Scheduler returns the scheduler collecting state updates of this root.
func (r *Root) Scheduler() *Scheduler { return r.eng.scheduler }

// Dispatch runs callback on the goroutine that next calls Flush. It is safe
// to call from any goroutine.
func (r *Root) Dispatch(callback func()) bool { return r.eng.scheduler.Dispatch(callback) }

// Flush re-renders every instance whose state changed since the last pass.
func (r *Root) Flush() error { return r.eng.scheduler.Flush() }

// Tree returns the fragment wrapping the last rendered tree, or nil.
func (r *Root) Tree() *Descriptor { return r.trees[r.container] }

// Render reconciles d into the container. On the first render existing
// container children are adopted where they match and removed otherwise.
// Errors isolated during commit are returned together; an error no boundary
// accepted aborts the pass before commit and is returned alone.
func (r *Root) Render(d any) error {
	return r.render(d, nil, false)
}

// Hydrate is like Render but adopts the existing container children
// without touching their attributes or text.
func (r *Root) Hydrate(d any) error {
	return r.render(d, nil, true)
}

// RenderReplacing renders d in place of target, a child of the container.
// target is adopted if it matches the first node d renders.
func (r *Root) RenderReplacing(d any, target host.Node) error {
	return r.render(d, target, false)
}

func (r *Root) render(d any, replace host.Node, hydrating bool) error {
	key := r.container
	if replace != nil {
		key = replace
	}
	old := r.trees[key]
	if hydrating {
		old = nil
	}

	tree := Frag(d)
	r.trees[key] = tree

	var excess []host.Node
	switch {
	case replace != nil:
		excess = []host.Node{replace}
	case old == nil:
		if children := r.container.ChildNodes(); len(children) > 0 {
			excess = append([]host.Node(nil), children...)
		}
	}

	anchor := AutoAnchor
	if replace != nil {
		anchor = At(replace)
	}

	p := r.eng.newPass(hydrating)
	if DebugMode {
		r.eng.logger.Trace("render", "hydrating", hydrating, "excess", len(excess))
	}
	if _, err := p.Diff(r.container, tree, old, nil, host.IsSVG(r.container), excess, anchor); err != nil {
		return r.eng.abort("core.Root.Render", "", err)
	}
	for _, n := range excess {
		host.Remove(n)
	}
	p.Commit(tree)
	return p.Err()
}

// Unmount tears down the rendered tree and empties the container.
func (r *Root) Unmount() error {
	tree := r.trees[r.container]
	if tree == nil {
		return nil
	}
	delete(r.trees, r.container)
	return r.eng.newPass(false).Unmount(tree, tree, false)
}

var (
	rootsMu sync.Mutex
	roots   = make(map[host.Node]*Root)
)

func rootFor(doc host.Document, container host.Node) *Root {
	rootsMu.Lock()
	defer rootsMu.Unlock()
	r, ok := roots[container]
	if !ok {
		r = NewRoot(doc, container)
		roots[container] = r
	}
	return r
}

// Render reconciles d into container using the root kept for that
// container, creating it on first use.
func Render(d any, doc host.Document, container host.Node) error {
	return rootFor(doc, container).Render(d)
}

// Hydrate adopts the existing children of container for d.
func Hydrate(d any, doc host.Document, container host.Node) error {
	return rootFor(doc, container).Hydrate(d)
}

// RootOf returns the root kept for container by Render and Hydrate.
func RootOf(container host.Node) (*Root, bool) {
	rootsMu.Lock()
	defer rootsMu.Unlock()
	r, ok := roots[container]
	return r, ok
}
