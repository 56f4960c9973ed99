// Package document exposes a vector segmentation document as a plain element
// tree: local tag names, an attribute map and text. The parser works on this
// tree only and never on the XML library underneath.
package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// ErrNoRoot is returned when the input holds no root element.
var ErrNoRoot = errors.New("document has no root element")

// Node is one element of the document tree.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string // character data directly inside the element
	Children []*Node

	inner string
}

// Attr returns the named attribute and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// InnerText returns the character data of the node and all descendants in
// document order.
func (n *Node) InnerText() string {
	return n.inner
}

// Walk visits the node and its descendants in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// ============================================================
// Parsing
// ============================================================

// Parse reads an XML document into a Node tree.
func Parse(data []byte) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("read xml: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, ErrNoRoot
	}
	return fromElement(root), nil
}

func fromElement(e *etree.Element) *Node {
	n := &Node{
		Tag:   e.Tag,
		Attrs: make(map[string]string, len(e.Attr)),
	}

	for _, a := range e.Attr {
		// xmlns declarations are not geometry
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		if _, taken := n.Attrs[a.Key]; taken && a.Space != "" {
			continue
		}
		n.Attrs[a.Key] = a.Value
	}

	var text, inner strings.Builder
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			text.WriteString(t.Data)
			inner.WriteString(t.Data)
		case *etree.Element:
			child := fromElement(t)
			n.Children = append(n.Children, child)
			inner.WriteString(child.inner)
		}
	}
	n.Text = text.String()
	n.inner = inner.String()

	return n
}
