package scene

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/go-drift/vtree/pkg/core"
	"github.com/go-drift/vtree/pkg/errors"
	"github.com/go-drift/vtree/pkg/host/memhost"
)

// StepResult is the outcome of rendering one step.
type StepResult struct {
	Name      string             `yaml:"name"`
	Markup    string             `yaml:"markup"`
	Mutations []memhost.Mutation `yaml:"-"`
	Journal   []string           `yaml:"mutations"`
	Err       error              `yaml:"-"`
	Error     string             `yaml:"error,omitempty"`
}

// Replay renders every step of s into a fresh in-memory container and
// records the mutations each step caused. A failing step is recorded,
// reported to the global error handler, and the replay continues with the
// next one.
func Replay(s *Scene, logger hclog.Logger) []StepResult {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	doc := memhost.NewDocument()
	container := doc.NewContainer("root")
	root := core.NewRoot(doc, container, core.WithLogger(logger))
	b := NewBuilder(s)

	results := make([]StepResult, 0, len(s.Steps))
	for i, step := range s.Steps {
		doc.Reset()
		tree, _ := b.Step(i)
		err := root.Render(tree)
		if err == nil && step.Flush {
			err = root.Flush()
		}

		res := StepResult{Name: step.Name, Markup: container.Markup(), Mutations: doc.JournalEntries(), Err: err}
		for _, m := range res.Mutations {
			res.Journal = append(res.Journal, m.String())
		}
		if err != nil {
			res.Error = err.Error()
			logger.Warn("step failed", "step", step.Name, "error", err)
			errors.Report(&errors.TreeError{Op: "scene.Replay", Kind: errors.KindScene, Err: err, Path: fmt.Sprintf("steps[%d]", i)})
		}
		results = append(results, res)
	}
	return results
}
