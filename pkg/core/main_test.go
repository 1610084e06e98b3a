package core_test

import (
	"os"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/go-drift/vtree/pkg/core"
	"github.com/go-drift/vtree/pkg/errors"
	"github.com/go-drift/vtree/pkg/host/memhost"
)

func TestMain(m *testing.M) {
	errors.SetHandler(&errors.LogHandler{Logger: hclog.NewNullLogger()})
	os.Exit(m.Run())
}

func newRoot(t *testing.T, opts ...core.Option) (*memhost.Document, *memhost.Node, *core.Root) {
	t.Helper()
	doc := memhost.NewDocument()
	container := doc.NewContainer("root")
	return doc, container, core.NewRoot(doc, container, opts...)
}

// lifecycle passes its children through and reports lifecycle events.
type lifecycle struct {
	core.Base
	name string
	rec  func(event string)
}

func (l *lifecycle) DidMount()                              { l.rec(l.name + ".DidMount") }
func (l *lifecycle) DidUpdate(core.Props, core.State, any) { l.rec(l.name + ".DidUpdate") }
func (l *lifecycle) WillUnmount()                           { l.rec(l.name + ".WillUnmount") }

func (l *lifecycle) Render(props core.Props, _ core.State, _ any) any {
	return props[core.ChildrenProp]
}

func track(name string, rec func(string)) *core.ComponentType {
	return core.Class(name, func() core.Component {
		return &lifecycle{name: name, rec: rec}
	})
}

type recorder struct {
	events []string
}

func (r *recorder) add(event string) { r.events = append(r.events, event) }

var failing = core.Func("Failing", func(core.Props, any) any {
	panic("boom")
})
