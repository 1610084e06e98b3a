package core

import (
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/go-drift/vtree/pkg/errors"
)

// Scheduler tracks instances that need re-rendering.
//
// Instance state is owned by the goroutine that renders and flushes.
// Dispatch is the only method other goroutines may call to reach it.
type Scheduler struct {
	dirty    []*Instance
	dirtySet map[*Instance]bool
	queue    []func()
	mu       sync.Mutex

	// OnNeedsFlush is called when work is queued on an empty scheduler,
	// signalling the host that Flush should run soon. Without it the caller
	// decides when to flush.
	OnNeedsFlush func()
}

// NewScheduler creates an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule queues inst for re-rendering. Queuing an instance twice before a
// flush has no effect.
func (s *Scheduler) Schedule(inst *Instance) {
	first := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.dirtySet[inst] {
			return false
		}
		if s.dirtySet == nil {
			s.dirtySet = make(map[*Instance]bool)
		}
		s.dirtySet[inst] = true
		s.dirty = append(s.dirty, inst)
		return len(s.dirty) == 1 && len(s.queue) == 0
	}()

	if first && s.OnNeedsFlush != nil {
		s.OnNeedsFlush()
	}
}

// Dispatch queues callback to run on the flushing goroutine at the start of
// the next flush, before queued instances render. It is safe to call from
// any goroutine and is how background work calls SetState. Returns false
// for a nil callback.
func (s *Scheduler) Dispatch(callback func()) bool {
	if callback == nil {
		return false
	}
	s.mu.Lock()
	first := len(s.dirty) == 0 && len(s.queue) == 0
	s.queue = append(s.queue, callback)
	s.mu.Unlock()

	if first && s.OnNeedsFlush != nil {
		s.OnNeedsFlush()
	}
	return true
}

// Pending returns the number of queued instances and dispatched callbacks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty) + len(s.queue)
}

// Flush runs dispatched callbacks and re-renders queued instances,
// shallowest first, until none remain. Each re-render is its own pass with
// its own commit. Instances that were unmounted or already re-rendered by an
// ancestor are skipped.
func (s *Scheduler) Flush() error {
	var result *multierror.Error
	for {
		ran, err := s.flushBatch()
		if err != nil {
			result = multierror.Append(result, err)
		}
		if !ran {
			return result.ErrorOrNil()
		}
	}
}

// FlushOnce runs the callbacks dispatched so far and re-renders the
// instances queued after them. Instances queued while they render wait for
// the next call.
func (s *Scheduler) FlushOnce() error {
	_, err := s.flushBatch()
	return err
}

func (s *Scheduler) drainDispatchQueue() []func() {
	s.mu.Lock()
	callbacks := s.queue
	s.queue = nil
	s.mu.Unlock()
	return callbacks
}

func (s *Scheduler) flushBatch() (bool, error) {
	var result *multierror.Error
	callbacks := s.drainDispatchQueue()
	for _, cb := range callbacks {
		if err := runDispatched(cb); err != nil {
			result = multierror.Append(result, err)
		}
	}

	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return len(callbacks) > 0, result.ErrorOrNil()
	}

	slices.SortStableFunc(s.dirty, func(a, b *Instance) int {
		return a.depth() - b.depth()
	})

	dirty := s.dirty
	s.dirty = nil
	clear(s.dirtySet)
	s.mu.Unlock()

	for _, inst := range dirty {
		if !inst.dirty || inst.phase == PhaseUnmounted || inst.eng == nil {
			continue
		}
		if err := inst.eng.rerender(inst); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return true, result.ErrorOrNil()
}

// runDispatched runs callback, turning a panic into a reported error so
// the rest of the flush goes ahead.
func runDispatched(callback func()) (err error) {
	defer errors.RecoverWithCallback("core.Scheduler.Dispatch", func(pe *errors.PanicError) { err = pe })
	callback()
	return nil
}

func (i *Instance) depth() int {
	if i.descriptor == nil {
		return 0
	}
	return i.descriptor.depth
}

// rerender renders inst again outside of its parent's pass. The bound
// descriptor is diffed against a copy of itself with a fresh identity so the
// instance cannot short-circuit on it.
func (e *engine) rerender(inst *Instance) error {
	d := inst.descriptor
	parent := inst.hostParent
	if d == nil || parent == nil {
		inst.dirty = false
		return nil
	}
	oldNode := d.node
	old := *d
	old.original = &old

	anchor := oldNode
	if anchor == nil {
		anchor = domSibling(d, -1)
	}

	p := e.newPass(false)
	if DebugMode {
		e.logger.Trace("re-render", "component", d.Name(), "depth", d.depth)
	}
	_, err := p.Diff(parent, d, &old, inst.legacy, inst.svg, nil, At(anchor))
	if err != nil {
		return e.abort("core.Scheduler.Flush", d.Name(), err)
	}
	p.Commit(d)
	if d.node != oldNode {
		updateParentNodePointers(d)
	}
	return p.Err()
}
