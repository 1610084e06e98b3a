package testing

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/go-drift/vtree/pkg/core"
	"github.com/go-drift/vtree/pkg/host/memhost"
)

// DefaultSettleRounds is the number of scheduler flushes Settle runs before
// giving up.
const DefaultSettleRounds = 32

// ErrSettleTimeout is returned when Settle exceeds its round limit.
var ErrSettleTimeout = errors.New("Settle timed out: components kept scheduling renders")

// Tester renders descriptor trees into an in-memory host tree and exposes
// the resulting markup, mutation journal, and descriptor tree for
// assertions.
type Tester struct {
	doc       *memhost.Document
	container *memhost.Node
	root      *core.Root
	logger    hclog.Logger
	hooks     *core.Hooks
}

// TesterOption configures a Tester.
type TesterOption func(*Tester)

// WithLogger routes reconciler logs to logger instead of discarding them.
func WithLogger(logger hclog.Logger) TesterOption {
	return func(t *Tester) { t.logger = logger }
}

// WithHooks installs extension hooks on the tester's root.
func WithHooks(h *core.Hooks) TesterOption {
	return func(t *Tester) { t.hooks = h }
}

// NewTester creates a tester with an empty "root" container.
// Call Cleanup() when done, or use NewTesterWithT() instead.
func NewTester(opts ...TesterOption) *Tester {
	t := &Tester{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(t)
	}
	t.doc = memhost.NewDocument()
	t.container = t.doc.NewContainer("root")
	rootOpts := []core.Option{core.WithLogger(t.logger)}
	if t.hooks != nil {
		rootOpts = append(rootOpts, core.WithHooks(t.hooks))
	}
	t.root = core.NewRoot(t.doc, t.container, rootOpts...)
	return t
}

// NewTesterWithT creates a tester that unmounts its tree via t.Cleanup().
// This is the recommended constructor for tests.
func NewTesterWithT(t testing.TB, opts ...TesterOption) *Tester {
	tester := NewTester(opts...)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the rendered tree.
func (t *Tester) Cleanup() {
	if t.root.Tree() != nil {
		_ = t.root.Unmount()
	}
}

// Render clears the mutation journal and renders d into the container,
// reconciling against the previous render.
func (t *Tester) Render(d any) error {
	t.doc.Reset()
	return t.root.Render(d)
}

// Hydrate clears the mutation journal and adopts the container's existing
// children for d.
func (t *Tester) Hydrate(d any) error {
	t.doc.Reset()
	return t.root.Hydrate(d)
}

// Flush runs the scheduler once without clearing the journal.
func (t *Tester) Flush() error {
	return t.root.Flush()
}

// Settle flushes queued renders one batch at a time until no component is
// queued, or returns ErrSettleTimeout after maxRounds batches. A maxRounds of zero or less
// uses DefaultSettleRounds.
func (t *Tester) Settle(maxRounds int) error {
	if maxRounds <= 0 {
		maxRounds = DefaultSettleRounds
	}
	for range maxRounds {
		if t.root.Scheduler().Pending() == 0 {
			return nil
		}
		if err := t.root.Scheduler().FlushOnce(); err != nil {
			return err
		}
	}
	if t.root.Scheduler().Pending() == 0 {
		return nil
	}
	return ErrSettleTimeout
}

// Root returns the underlying root.
func (t *Tester) Root() *core.Root { return t.root }

// Document returns the in-memory document.
func (t *Tester) Document() *memhost.Document { return t.doc }

// Container returns the render container.
func (t *Tester) Container() *memhost.Node { return t.container }

// Tree returns the committed descriptor tree, or nil before the first
// render.
func (t *Tester) Tree() *core.Descriptor { return t.root.Tree() }

// Markup serializes the container's children.
func (t *Tester) Markup() string { return t.container.Markup() }

// Mutations returns the number of host mutations since the last Render.
func (t *Tester) Mutations() int { return t.doc.Mutations() }

// Journal returns the mutations since the last Render as strings such as
// "insert li#3 into ul#2".
func (t *Tester) Journal() []string {
	entries := t.doc.JournalEntries()
	out := make([]string, len(entries))
	for i, m := range entries {
		out[i] = m.String()
	}
	return out
}

// ResetJournal clears the mutation journal.
func (t *Tester) ResetJournal() { t.doc.Reset() }

// Find evaluates a finder against the committed descriptor tree.
func (t *Tester) Find(finder Finder) FinderResult {
	tree := t.root.Tree()
	if tree == nil {
		return FinderResult{finder: finder}
	}
	return FinderResult{
		descriptors: finder.Evaluate(tree),
		finder:      finder,
	}
}
