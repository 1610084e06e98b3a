package core

import (
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-drift/vtree/pkg/host"
)

// elementDiffer is the default ElementDiffer.
type elementDiffer struct{}

// DefaultElementDiffer returns the host node differ used when a Root is
// created without WithElementDiffer.
func DefaultElementDiffer() ElementDiffer {
	return elementDiffer{}
}

func (elementDiffer) DiffElementNodes(p *Pass, node host.Node, d, old *Descriptor, ctx *ContextMap,
	svg bool, excess []host.Node) (host.Node, error) {
	hydrating := p.hydrating
	if d.tag == "svg" {
		svg = true
	}

	for i, candidate := range excess {
		if candidate == nil {
			continue
		}
		if candidate == node || adoptable(candidate, d) {
			node = candidate
			excess[i] = nil
			break
		}
	}

	if node == nil {
		if d.kind == KindText {
			return p.Document().CreateText(d.text), nil
		}
		node = p.Document().CreateElement(d.tag, svg)
		excess = nil
		hydrating = false
	}

	if d.kind == KindText {
		if node.Data() != d.text {
			node.SetData(d.text)
		}
		return node, nil
	}

	var oldProps Props
	if old != nil {
		oldProps = old.props
	}
	if excess != nil {
		excess = slices.Clone(node.ChildNodes())
		if !hydrating {
			oldProps = attributeProps(node)
		}
	}
	diffProps(node, d.props, oldProps, hydrating)

	childSVG := svg && d.tag != "foreignObject"
	if err := p.DiffChildren(node, d.props.Children(), d, old, ctx, childSVG, excess, AutoAnchor); err != nil {
		return node, err
	}
	return node, nil
}

func adoptable(n host.Node, d *Descriptor) bool {
	if d.kind == KindText {
		return n.Kind() == host.TextNode
	}
	return n.Kind() == host.ElementNode && n.Tag() == d.tag
}

func attributeProps(n host.Node) Props {
	attrs := n.Attributes()
	props := make(Props, len(attrs))
	for _, a := range attrs {
		props[a.Name] = a.Value
	}
	return props
}

// diffProps removes attributes missing from next and sets those whose value
// changed. While hydrating only function values are applied since the host
// already carries the markup attributes.
func diffProps(n host.Node, next, prev Props, hydrating bool) {
	for _, name := range slices.Sorted(maps.Keys(prev)) {
		if name == ChildrenProp {
			continue
		}
		if _, ok := next[name]; !ok {
			setAttribute(n, name, nil)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(next)) {
		if name == ChildrenProp {
			continue
		}
		value := next[name]
		if hydrating && !isFunc(value) {
			continue
		}
		if prevValue, ok := prev[name]; ok && sameValue(prevValue, value) {
			continue
		}
		setAttribute(n, name, value)
	}
}

// setAttribute removes the attribute for nil and for false, except on
// aria- and data- attributes where false is a meaningful value.
func setAttribute(n host.Node, name string, value any) {
	if value == nil || (value == false && !strings.HasPrefix(name, "aria-") && !strings.HasPrefix(name, "data-")) {
		if _, ok := n.Attribute(name); ok {
			n.RemoveAttribute(name)
		}
		return
	}
	n.SetAttribute(name, value)
}

func isFunc(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}
