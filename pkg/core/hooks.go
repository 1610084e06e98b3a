package core

// Hooks are optional instrumentation callbacks invoked synchronously at
// fixed points of a pass. They are scoped to the Root they are passed to.
//
// Hooks observe; they must not mutate descriptors. Error is called for every
// failure raised by component code before boundary handling, with the
// failing descriptor and the descriptor previously at its position (nil on
// first mount or outside a diff).
type Hooks struct {
	// DescriptorCreated sees descriptors the engine creates while
	// normalizing rendered children: text and fragments coerced from
	// strings, numbers and slices, and copies of descriptors reused from
	// an earlier pass. Descriptors built directly with H, Create or Text
	// are not reported; they exist before any root sees them.
	DescriptorCreated func(d *Descriptor)
	BeforeDiff        func(d *Descriptor)
	AfterRender       func(d *Descriptor)
	AfterDiff         func(d *Descriptor)
	BeforeUnmount     func(d *Descriptor)
	BeforeCommit      func(root *Descriptor, queue []*Instance)
	Error             func(err error, d, previous *Descriptor)
}

func (h *Hooks) created(d *Descriptor) *Descriptor {
	if h != nil && h.DescriptorCreated != nil {
		h.DescriptorCreated(d)
	}
	return d
}

func (h *Hooks) beforeDiff(d *Descriptor) {
	if h != nil && h.BeforeDiff != nil {
		h.BeforeDiff(d)
	}
}

func (h *Hooks) afterRender(d *Descriptor) {
	if h != nil && h.AfterRender != nil {
		h.AfterRender(d)
	}
}

func (h *Hooks) afterDiff(d *Descriptor) {
	if h != nil && h.AfterDiff != nil {
		h.AfterDiff(d)
	}
}

func (h *Hooks) beforeUnmount(d *Descriptor) {
	if h != nil && h.BeforeUnmount != nil {
		h.BeforeUnmount(d)
	}
}

func (h *Hooks) beforeCommit(root *Descriptor, queue []*Instance) {
	if h != nil && h.BeforeCommit != nil {
		h.BeforeCommit(root, queue)
	}
}

func (h *Hooks) error(err error, d, previous *Descriptor) {
	if h != nil && h.Error != nil {
		h.Error(err, d, previous)
	}
}

// Chain returns hooks that call every non-nil callback of each set in order.
func Chain(sets ...*Hooks) *Hooks {
	out := &Hooks{}
	out.DescriptorCreated = func(d *Descriptor) {
		for _, h := range sets {
			h.created(d)
		}
	}
	out.BeforeDiff = func(d *Descriptor) {
		for _, h := range sets {
			h.beforeDiff(d)
		}
	}
	out.AfterRender = func(d *Descriptor) {
		for _, h := range sets {
			h.afterRender(d)
		}
	}
	out.AfterDiff = func(d *Descriptor) {
		for _, h := range sets {
			h.afterDiff(d)
		}
	}
	out.BeforeUnmount = func(d *Descriptor) {
		for _, h := range sets {
			h.beforeUnmount(d)
		}
	}
	out.BeforeCommit = func(root *Descriptor, queue []*Instance) {
		for _, h := range sets {
			h.beforeCommit(root, queue)
		}
	}
	out.Error = func(err error, d, previous *Descriptor) {
		for _, h := range sets {
			h.error(err, d, previous)
		}
	}
	return out
}
