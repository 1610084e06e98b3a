package testing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-drift/vtree/pkg/core"
	"github.com/go-drift/vtree/pkg/host"
)

// Finder locates descriptors in a committed tree.
type Finder interface {
	// Evaluate returns all matching descriptors under root (depth-first pre-order).
	Evaluate(root *core.Descriptor) []*core.Descriptor
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	descriptors []*core.Descriptor
	finder      Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *core.Descriptor {
	if len(r.descriptors) == 0 {
		panic(fmt.Sprintf("Finder found no descriptors: %s", r.description()))
	}
	return r.descriptors[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *core.Descriptor {
	if len(r.descriptors) == 0 {
		return nil
	}
	return r.descriptors[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *core.Descriptor {
	if index < 0 || index >= len(r.descriptors) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.descriptors), r.description()))
	}
	return r.descriptors[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*core.Descriptor {
	return r.descriptors
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.descriptors)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.descriptors) > 0
}

// Node returns the first host node of the first match, or nil.
func (r FinderResult) Node() host.Node {
	return r.First().Node()
}

// Instance returns the component instance of the first match, or nil for
// element and text descriptors.
func (r FinderResult) Instance() *core.Instance {
	return r.First().Instance()
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// --- Concrete finders ---

// tagFinder matches element descriptors by tag.
type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(root *core.Descriptor) []*core.Descriptor {
	return collectMatches(root, func(d *core.Descriptor) bool {
		return d.Kind() == core.KindElement && d.Tag() == f.tag
	})
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%q)", f.tag)
}

// ByTag returns a finder that matches elements with the given tag.
func ByTag(tag string) Finder {
	return &tagFinder{tag: tag}
}

// typeFinder matches component descriptors of one component type.
type typeFinder struct {
	typ *core.ComponentType
}

func (f *typeFinder) Evaluate(root *core.Descriptor) []*core.Descriptor {
	return collectMatches(root, func(d *core.Descriptor) bool {
		return d.Type() == f.typ
	})
}

func (f *typeFinder) Description() string {
	return fmt.Sprintf("ByType(%s)", f.typ)
}

// ByType returns a finder that matches descriptors created for t.
func ByType(t *core.ComponentType) Finder {
	return &typeFinder{typ: t}
}

// keyFinder matches descriptors whose key equals the given key.
type keyFinder struct {
	key any
}

func (f *keyFinder) Evaluate(root *core.Descriptor) []*core.Descriptor {
	return collectMatches(root, func(d *core.Descriptor) bool {
		k := d.Key()
		if k == nil || f.key == nil {
			return k == nil && f.key == nil
		}
		// Guard against non-comparable types (slices, maps, funcs).
		if !reflect.TypeOf(k).Comparable() || !reflect.TypeOf(f.key).Comparable() {
			return reflect.DeepEqual(k, f.key)
		}
		return k == f.key
	})
}

func (f *keyFinder) Description() string {
	return fmt.Sprintf("ByKey(%v)", f.key)
}

// ByKey returns a finder that matches descriptors whose key equals key.
func ByKey(key any) Finder {
	return &keyFinder{key: key}
}

// textFinder matches text descriptors by exact content.
type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root *core.Descriptor) []*core.Descriptor {
	return collectMatches(root, func(d *core.Descriptor) bool {
		return d.Kind() == core.KindText && d.Text() == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches text descriptors with exact content.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// textContainingFinder matches text descriptors containing a substring.
type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(root *core.Descriptor) []*core.Descriptor {
	return collectMatches(root, func(d *core.Descriptor) bool {
		return d.Kind() == core.KindText && strings.Contains(d.Text(), f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining returns a finder that matches text descriptors
// containing substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

// predicateFinder matches descriptors satisfying a predicate.
type predicateFinder struct {
	fn   func(*core.Descriptor) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *core.Descriptor) []*core.Descriptor {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches descriptors satisfying fn.
func ByPredicate(fn func(*core.Descriptor) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds descriptors matching 'matching' that are
// descendants of descriptors matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *core.Descriptor) []*core.Descriptor {
	var results []*core.Descriptor
	seen := make(map[*core.Descriptor]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for _, child := range ancestor.Rendered() {
			if child == nil {
				continue
			}
			for _, match := range f.matching.Evaluate(child) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches descriptors satisfying
// 'matching' that are descendants of descriptors matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds descriptors matching 'matching' that are ancestors
// of descriptors matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root *core.Descriptor) []*core.Descriptor {
	candidates := make(map[*core.Descriptor]bool)
	for _, d := range f.matching.Evaluate(root) {
		candidates[d] = true
	}
	found := make(map[*core.Descriptor]bool)
	for _, d := range f.of.Evaluate(root) {
		for p := d.Parent(); p != nil; p = p.Parent() {
			if candidates[p] {
				found[p] = true
			}
		}
	}
	// Keep traversal order.
	return collectMatches(root, func(d *core.Descriptor) bool { return found[d] })
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches descriptors satisfying 'matching'
// that are ancestors of descriptors matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// collectMatches performs depth-first pre-order traversal, collecting
// descriptors that satisfy the predicate.
func collectMatches(root *core.Descriptor, predicate func(*core.Descriptor) bool) []*core.Descriptor {
	var results []*core.Descriptor
	walkTree(root, func(d *core.Descriptor) bool {
		if predicate(d) {
			results = append(results, d)
		}
		return true
	})
	return results
}

// walkTree performs a depth-first pre-order traversal of the rendered
// descriptor tree. The visitor returns false to stop traversal.
func walkTree(root *core.Descriptor, visitor func(*core.Descriptor) bool) bool {
	if root == nil {
		return true
	}
	if !visitor(root) {
		return false
	}
	for _, child := range root.Rendered() {
		if !walkTree(child, visitor) {
			return false
		}
	}
	return true
}
