// Package scene decodes YAML scene documents into descriptor trees.
//
// A scene declares template components and a sequence of steps. Each step
// is a full tree; replaying the steps against one root shows which host
// mutations every transition costs.
//
//	schema: v1.0.0
//	components:
//	  Item:
//	    tag: li
//	    props: {class: $kind}
//	    children: [$label]
//	steps:
//	  - name: initial
//	    tree:
//	      tag: ul
//	      children:
//	        - {component: Item, key: a, props: {label: A, kind: x}}
//	        - text
//
// A string scalar in a children list is a text node. Strings of the form
// "$name" in a template are replaced by the prop of that name, and a node
// with slot: true is replaced by the children passed to the component.
package scene

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/vtree/pkg/errors"
)

// SupportedSchema is the newest scene schema version this package reads.
// Documents with the same major version and a lower or equal version are
// accepted.
const SupportedSchema = "v1.1.0"

// Scene is a decoded scene document.
type Scene struct {
	Schema     string          `yaml:"schema"`
	Name       string          `yaml:"name,omitempty"`
	Components map[string]Node `yaml:"components,omitempty"`
	Steps      []Step          `yaml:"steps"`
}

// Step is one tree rendered during a replay.
type Step struct {
	Name string `yaml:"name"`
	Tree Node   `yaml:"tree"`
	// Flush runs the scheduler after the render.
	Flush bool `yaml:"flush,omitempty"`
}

// Node is one node of a scene tree. Exactly one of Tag, Text, Component,
// Slot, or Fragment is set.
type Node struct {
	Tag       string         `yaml:"tag,omitempty"`
	Text      *string        `yaml:"text,omitempty"`
	Component string         `yaml:"component,omitempty"`
	Fragment  bool           `yaml:"fragment,omitempty"`
	Slot      bool           `yaml:"slot,omitempty"`
	Key       any            `yaml:"key,omitempty"`
	Props     map[string]any `yaml:"props,omitempty"`
	Children  []Node         `yaml:"children,omitempty"`
}

// UnmarshalYAML accepts a plain scalar as a text node.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		text := value.Value
		*n = Node{Text: &text}
		return nil
	}
	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	return nil
}

// Load reads and decodes the scene file at path. Failures are also sent to
// the global error handler.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		treeErr := &errors.TreeError{Op: "scene.Load", Kind: errors.KindScene, Err: err, Path: path}
		errors.Report(treeErr)
		return nil, treeErr
	}
	defer f.Close()
	s, err := Decode(f)
	if treeErr, ok := err.(*errors.TreeError); ok {
		errors.Report(treeErr)
	}
	return s, err
}

// Decode reads a scene document and validates its schema version and
// structure. Unknown fields are rejected.
func Decode(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Scene
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			err = fmt.Errorf("empty document")
		}
		return nil, &errors.TreeError{Op: "scene.Decode", Kind: errors.KindScene, Err: err}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// CheckSchema reports whether version can be read by this package.
func CheckSchema(version string) error {
	if !semver.IsValid(version) {
		return fmt.Errorf("invalid schema version %q", version)
	}
	if semver.Major(version) != semver.Major(SupportedSchema) {
		return fmt.Errorf("unsupported schema major version %s (supported %s)", semver.Major(version), semver.Major(SupportedSchema))
	}
	if semver.Compare(version, SupportedSchema) > 0 {
		return fmt.Errorf("schema %s is newer than supported %s", version, SupportedSchema)
	}
	return nil
}

// Validate checks the schema version and every node of the document.
func (s *Scene) Validate() error {
	if err := CheckSchema(s.Schema); err != nil {
		return &errors.TreeError{Op: "scene.Validate", Kind: errors.KindScene, Err: err, Path: "schema"}
	}
	for name, tmpl := range s.Components {
		if err := s.validateNode(tmpl, "components."+name, true); err != nil {
			return err
		}
	}
	if err := s.checkCycles(); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return &errors.TreeError{Op: "scene.Validate", Kind: errors.KindScene, Err: fmt.Errorf("no steps"), Path: "steps"}
	}
	for i, step := range s.Steps {
		if err := s.validateNode(step.Tree, fmt.Sprintf("steps[%d].tree", i), false); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) validateNode(n Node, path string, template bool) error {
	fail := func(format string, args ...any) error {
		return &errors.TreeError{Op: "scene.Validate", Kind: errors.KindScene, Err: fmt.Errorf(format, args...), Path: path}
	}
	set := 0
	for _, ok := range []bool{n.Tag != "", n.Text != nil, n.Component != "", n.Fragment, n.Slot} {
		if ok {
			set++
		}
	}
	switch {
	case set == 0:
		return fail("node has neither tag, text, component, fragment, nor slot")
	case set > 1:
		return fail("node must set exactly one of tag, text, component, fragment, slot")
	case n.Slot && !template:
		return fail("slot outside a component template")
	case n.Text != nil && len(n.Children) > 0:
		return fail("text node cannot have children")
	}
	if n.Component != "" {
		if _, ok := s.Components[n.Component]; !ok {
			return fail("unknown component %q", n.Component)
		}
	}
	for name := range n.Props {
		if name == "key" || name == "ref" || name == "children" {
			return fail("reserved prop %q", name)
		}
	}
	for i, child := range n.Children {
		if err := s.validateNode(child, fmt.Sprintf("%s.children[%d]", path, i), template); err != nil {
			return err
		}
	}
	return nil
}

// checkCycles rejects component templates that render themselves, directly
// or through other components. Templates have no conditionals, so any such
// reference recurses without end.
func (s *Scene) checkCycles() error {
	const (
		visiting = 1
		done     = 2
	)
	marks := make(map[string]int, len(s.Components))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			start := slices.Index(stack, name)
			cycle := append(slices.Clone(stack[start:]), name)
			return &errors.TreeError{
				Op:   "scene.Validate",
				Kind: errors.KindScene,
				Err:  fmt.Errorf("component cycle %s", strings.Join(cycle, " -> ")),
				Path: "components." + cycle[0],
			}
		}
		marks[name] = visiting
		stack = append(stack, name)
		for _, ref := range componentRefs(s.Components[name], nil) {
			if err := visit(ref); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		marks[name] = done
		return nil
	}

	for _, name := range slices.Sorted(maps.Keys(s.Components)) {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// componentRefs appends the component names used anywhere below n.
func componentRefs(n Node, refs []string) []string {
	if n.Component != "" {
		refs = append(refs, n.Component)
	}
	for _, child := range n.Children {
		refs = componentRefs(child, refs)
	}
	return refs
}

// placeholder returns the prop name for a "$name" string.
func placeholder(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || len(s) < 2 || !strings.HasPrefix(s, "$") {
		return "", false
	}
	return s[1:], true
}
