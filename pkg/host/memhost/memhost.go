// Package memhost is an in-memory host tree for tests, tooling, and
// server-side rendering.
//
// Every mutation is counted and optionally journaled, which makes it easy to
// assert that a re-render produced no host work at all.
package memhost

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-drift/vtree/pkg/host"
)

// Op names a journaled mutation.
type Op string

const (
	OpCreate     Op = "create"
	OpInsert     Op = "insert"
	OpRemove     Op = "remove"
	OpSetData    Op = "set-data"
	OpSetAttr    Op = "set-attr"
	OpRemoveAttr Op = "remove-attr"
)

// Mutation is a single journaled host mutation.
type Mutation struct {
	Op     Op
	Target string
	Detail string
}

func (m Mutation) String() string {
	if m.Detail == "" {
		return fmt.Sprintf("%s %s", m.Op, m.Target)
	}
	return fmt.Sprintf("%s %s %s", m.Op, m.Target, m.Detail)
}

// Document creates Nodes and records every mutation made to them.
type Document struct {
	nextID  int
	count   int
	journal []Mutation
	// Journal enables recording of individual mutations in addition to the
	// running count.
	Journal bool
}

// NewDocument returns a document with journaling enabled.
func NewDocument() *Document {
	return &Document{Journal: true}
}

func (d *Document) record(op Op, target *Node, detail string) {
	d.count++
	if d.Journal {
		d.journal = append(d.journal, Mutation{Op: op, Target: target.Label(), Detail: detail})
	}
}

// Mutations returns the number of mutations recorded since the last Reset.
func (d *Document) Mutations() int {
	return d.count
}

// JournalEntries returns a copy of the recorded mutations.
func (d *Document) JournalEntries() []Mutation {
	return slices.Clone(d.journal)
}

// Reset clears the mutation count and journal.
func (d *Document) Reset() {
	d.count = 0
	d.journal = nil
}

// NewContainer returns a detached element that is not counted as a
// mutation. Use it as the render root.
func (d *Document) NewContainer(tag string) *Node {
	d.nextID++
	return &Node{doc: d, id: d.nextID, kind: host.ElementNode, tag: tag}
}

// CreateElement implements host.Document.
func (d *Document) CreateElement(tag string, svg bool) host.Node {
	d.nextID++
	n := &Node{doc: d, id: d.nextID, kind: host.ElementNode, tag: tag, svg: svg}
	d.record(OpCreate, n, "")
	return n
}

// CreateText implements host.Document.
func (d *Document) CreateText(data string) host.Node {
	d.nextID++
	n := &Node{doc: d, id: d.nextID, kind: host.TextNode, data: data}
	d.record(OpCreate, n, "")
	return n
}

// Node is an in-memory host node.
type Node struct {
	doc      *Document
	id       int
	kind     host.NodeKind
	tag      string
	svg      bool
	data     string
	attrs    map[string]any
	parent   *Node
	children []*Node
}

// ID returns the creation sequence number of the node.
func (n *Node) ID() int { return n.id }

// Label returns a short identifier like "div#3" or "#text#4".
func (n *Node) Label() string {
	if n.kind == host.TextNode {
		return fmt.Sprintf("#text#%d", n.id)
	}
	return fmt.Sprintf("%s#%d", n.tag, n.id)
}

// SVG reports whether the node was created in the SVG namespace.
func (n *Node) SVG() bool { return n.svg }

func (n *Node) Kind() host.NodeKind { return n.kind }
func (n *Node) Tag() string         { return n.tag }
func (n *Node) Data() string        { return n.data }

func (n *Node) Parent() host.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) NextSibling() host.Node {
	if n.parent == nil {
		return nil
	}
	siblings := n.parent.children
	i := slices.Index(siblings, n)
	if i < 0 || i+1 >= len(siblings) {
		return nil
	}
	return siblings[i+1]
}

func (n *Node) ChildNodes() []host.Node {
	out := make([]host.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) AppendChild(child host.Node) {
	n.InsertBefore(child, nil)
}

func (n *Node) InsertBefore(child, ref host.Node) {
	c := child.(*Node)
	if c.parent != nil {
		c.parent.detach(c)
	}
	index := len(n.children)
	if ref != nil {
		if i := slices.Index(n.children, ref.(*Node)); i >= 0 {
			index = i
		}
	}
	n.children = slices.Insert(n.children, index, c)
	c.parent = n
	n.doc.record(OpInsert, c, "into "+n.Label())
}

func (n *Node) RemoveChild(child host.Node) {
	c := child.(*Node)
	if c.parent != n {
		return
	}
	n.detach(c)
	n.doc.record(OpRemove, c, "from "+n.Label())
}

func (n *Node) detach(c *Node) {
	if i := slices.Index(n.children, c); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
	}
	c.parent = nil
}

func (n *Node) SetData(data string) {
	n.data = data
	n.doc.record(OpSetData, n, fmt.Sprintf("%q", data))
}

func (n *Node) Attributes() []host.Attr {
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]host.Attr, len(names))
	for i, name := range names {
		out[i] = host.Attr{Name: name, Value: n.attrs[name]}
	}
	return out
}

func (n *Node) Attribute(name string) (any, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) SetAttribute(name string, value any) {
	if n.attrs == nil {
		n.attrs = make(map[string]any)
	}
	n.attrs[name] = value
	n.doc.record(OpSetAttr, n, fmt.Sprintf("%s=%v", name, value))
}

func (n *Node) RemoveAttribute(name string) {
	if _, ok := n.attrs[name]; !ok {
		return
	}
	delete(n.attrs, name)
	n.doc.record(OpRemoveAttr, n, name)
}

// Markup serializes the children of n as compact markup. Text is written
// verbatim; attributes are sorted by name and function values are omitted.
func (n *Node) Markup() string {
	var sb strings.Builder
	for _, c := range n.children {
		c.write(&sb)
	}
	return sb.String()
}

// OuterMarkup serializes n itself, including its own tag.
func (n *Node) OuterMarkup() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.kind == host.TextNode {
		sb.WriteString(n.data)
		return
	}
	sb.WriteString("<")
	sb.WriteString(n.tag)
	for _, attr := range n.Attributes() {
		if isFunc(attr.Value) {
			continue
		}
		fmt.Fprintf(sb, " %s=%q", attr.Name, fmt.Sprint(attr.Value))
	}
	sb.WriteString(">")
	for _, c := range n.children {
		c.write(sb)
	}
	sb.WriteString("</")
	sb.WriteString(n.tag)
	sb.WriteString(">")
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
