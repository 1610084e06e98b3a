// Package host defines the live UI tree the reconciler mutates.
//
// The reconciler never touches platform objects directly. It talks to a
// Document to create nodes and to Node to attach, move, and configure them.
// Any retained-mode tree can back these interfaces: a browser DOM bridge, a
// native view hierarchy, or the in-memory tree in package memhost.
package host

// NodeKind distinguishes element nodes from text nodes.
type NodeKind int

const (
	// ElementNode is a tagged node that carries attributes and children.
	ElementNode NodeKind = iota
	// TextNode is a leaf that carries character data.
	TextNode
)

func (k NodeKind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return "unknown"
	}
}

// Attr is a single attribute on an element node.
type Attr struct {
	Name  string
	Value any
}

// Node is a live host object. Implementations must use pointer identity:
// two Node values are the same node only if they compare equal.
type Node interface {
	Kind() NodeKind
	// Tag returns the element tag, or "" for text nodes.
	Tag() string

	Parent() Node
	NextSibling() Node
	ChildNodes() []Node
	AppendChild(child Node)
	// InsertBefore inserts child before ref. A nil ref appends.
	InsertBefore(child, ref Node)
	RemoveChild(child Node)

	// Data returns the character data of a text node.
	Data() string
	SetData(data string)

	Attributes() []Attr
	Attribute(name string) (any, bool)
	SetAttribute(name string, value any)
	RemoveAttribute(name string)
}

// Document creates host nodes.
type Document interface {
	CreateElement(tag string, svg bool) Node
	CreateText(data string) Node
}

// Remove detaches node from its parent, if it has one.
func Remove(node Node) {
	if node == nil {
		return
	}
	if parent := node.Parent(); parent != nil {
		parent.RemoveChild(node)
	}
}

// IsSVG reports whether the element was created in the SVG namespace.
// Nodes that do not implement interface{ SVG() bool } are never SVG.
func IsSVG(node Node) bool {
	if s, ok := node.(interface{ SVG() bool }); ok {
		return s.SVG()
	}
	return false
}
