package core

import (
	"fmt"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/go-drift/vtree/pkg/host"
)

// listReconciler is the default ChildReconciler. Children are matched by key
// and type at the same index first, then by a linear scan of the previous
// children.
type listReconciler struct{}

// DefaultChildReconciler returns the keyed list reconciler used when a Root
// is created without WithChildReconciler.
func DefaultChildReconciler() ChildReconciler {
	return listReconciler{}
}

type pendingRef struct {
	ref   Ref
	value any
	owner *Descriptor
}

func (listReconciler) DiffChildren(p *Pass, parent host.Node, rendered []any, newParent, oldParent *Descriptor,
	ctx *ContextMap, svg bool, excess []host.Node, anchor Anchor) error {
	oldChildren := append([]*Descriptor(nil), oldParent.Rendered()...)
	claimed := make([]bool, len(oldChildren))

	at := anchor.Node
	if anchor.Auto {
		switch {
		case excess != nil:
			at = firstNode(excess)
		case len(oldChildren) > 0:
			at = domSibling(oldParent, 0)
		default:
			at = nil
		}
	}

	var refs []pendingRef
	var firstChild host.Node
	newParent.children = make([]*Descriptor, len(rendered))

	for i, raw := range rendered {
		child := p.coerce(raw)
		newParent.children[i] = child
		if child == nil {
			continue
		}
		child.parent = newParent
		child.depth = newParent.depth + 1

		var old *Descriptor
		idx := -1
		if i < len(oldChildren) && !claimed[i] && (oldChildren[i] == nil || sameType(child, oldChildren[i])) {
			old, idx = oldChildren[i], i
		} else {
			for j, candidate := range oldChildren {
				if !claimed[j] && candidate != nil && sameType(child, candidate) {
					old, idx = candidate, j
					break
				}
			}
		}
		if idx >= 0 {
			claimed[idx] = true
		}

		node, err := p.Diff(parent, child, old, ctx, svg, excess, At(at))
		if err != nil {
			return err
		}

		if ref := child.ref; ref != nil && !sameValue(old.Ref(), ref) {
			if prev := old.Ref(); prev != nil {
				refs = append(refs, pendingRef{ref: prev, owner: child})
			}
			refs = append(refs, pendingRef{ref: ref, value: refValue(child), owner: child})
		}

		if node != nil {
			if firstChild == nil {
				firstChild = node
			}
			at = p.eng.children.PlaceChild(parent, child, old, oldChildren, node, at)
			if newParent.kind == KindComponent {
				newParent.setNextNode(at)
			}
		} else if at != nil && old.Node() == at && at.Parent() != parent {
			at = domSibling(old, -1)
		}
	}

	newParent.node = firstChild

	if excess != nil && newParent.kind != KindComponent {
		for i := len(excess) - 1; i >= 0; i-- {
			if excess[i] != nil {
				host.Remove(excess[i])
				excess[i] = nil
			}
		}
	}

	for i := len(oldChildren) - 1; i >= 0; i-- {
		if !claimed[i] && oldChildren[i] != nil {
			p.Unmount(oldChildren[i], oldChildren[i], false)
		}
	}

	for _, r := range refs {
		p.ApplyRef(r.ref, r.value, r.owner)
	}
	return nil
}

// PlaceChild moves node before anchor unless it already sits at or shortly
// after the anchor. The scan of following siblings is bounded by half the
// number of old siblings.
func (listReconciler) PlaceChild(parent host.Node, child, oldChild *Descriptor, oldSiblings []*Descriptor,
	node, anchor host.Node) host.Node {
	if next, ok := child.takeNextNode(); ok {
		return next
	}
	if node != anchor || node.Parent() == nil {
		if anchor == nil || anchor.Parent() != parent {
			parent.AppendChild(node)
			return nil
		}
		j := 0
		for sib := anchor.NextSibling(); sib != nil && j < len(oldSiblings); sib = sib.NextSibling() {
			if sib == node {
				return node.NextSibling()
			}
			j += 2
		}
		parent.InsertBefore(node, anchor)
		return anchor
	}
	return node.NextSibling()
}

// coerce turns one rendered child value into a descriptor, or nil for a
// hole.
func (p *Pass) coerce(raw any) *Descriptor {
	var d *Descriptor
	switch v := raw.(type) {
	case nil, bool:
		return nil
	case *Descriptor:
		if v == nil {
			return nil
		}
		if v.depth > 0 || v.node != nil || v.instance != nil {
			d = v.reuse()
		} else {
			return v
		}
	case string:
		d = Text(v)
	case []any:
		d = Frag(v...)
	case []*Descriptor:
		children := make([]any, len(v))
		for i, c := range v {
			children[i] = c
		}
		d = Frag(children...)
	case fmt.Stringer:
		d = Text(v.String())
	default:
		text, ok := numberText(v)
		if !ok {
			return nil
		}
		d = Text(text)
	}
	return p.eng.hooks.created(d)
}

func numberText(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return fmt.Sprint(n), true
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), true
	}
	return "", false
}

// toChildList normalizes a children prop to a slice. A single child becomes
// a one-element slice.
func toChildList(v any) []any {
	switch c := v.(type) {
	case nil:
		return nil
	case []any:
		return c
	case []*Descriptor:
		out := make([]any, len(c))
		for i, d := range c {
			out[i] = d
		}
		return out
	default:
		return []any{v}
	}
}

func refValue(d *Descriptor) any {
	if d.instance != nil {
		return d.instance.component
	}
	return d.node
}

func firstNode(nodes []host.Node) host.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// domSibling returns the first host node rendered by d's children from
// index i on, continuing past d into its parent when d is a composite. A
// negative i starts after d itself.
func domSibling(d *Descriptor, i int) host.Node {
	for d != nil {
		if i < 0 {
			parent := d.parent
			if parent == nil {
				return nil
			}
			i = indexOf(parent.children, d) + 1
			d = parent
			continue
		}
		for ; i < len(d.children); i++ {
			if sib := d.children[i]; sib != nil && sib.node != nil {
				return sib.node
			}
		}
		if d.kind != KindComponent {
			return nil
		}
		i = -1
	}
	return nil
}

func indexOf(list []*Descriptor, d *Descriptor) int {
	for i, c := range list {
		if c == d {
			return i
		}
	}
	return len(list)
}

// updateParentNodePointers walks up from d and resets the first host node
// of every enclosing composite.
func updateParentNodePointers(d *Descriptor) {
	for d = d.parent; d != nil && d.instance != nil; d = d.parent {
		d.node = nil
		d.instance.base = nil
		for _, child := range d.children {
			if child != nil && child.node != nil {
				d.node = child.node
				d.instance.base = child.node
				break
			}
		}
	}
}

// sameValue compares two prop, key, or ref values by identity. Functions,
// maps, and pointers compare by address, slices by address and length, and
// comparable values with ==.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return closure(a) == closure(b)
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return reflect.DeepEqual(a, b)
}

// closure returns the function value word of f. Each evaluation of a func
// literal that captures variables yields a distinct word, so a re-created
// handler never compares equal to its predecessor.
func closure(f any) unsafe.Pointer {
	return (*[2]unsafe.Pointer)(unsafe.Pointer(&f))[1]
}

// sameProps reports whether a and b are the same map.
func sameProps(a, b Props) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}
