// Package xml wraps xmlquery for reading boundary metadata with XPath and
// writing indented table exports.
//
// Parsing goes through xmlquery, which uses encoding/xml and never fetches
// external entities.
package xml

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/mushaf/core/encoding"
)

// Document is a parsed or built XML document.
type Document struct {
	root *xmlquery.Node
}

// Node is an element of a Document.
type Node struct {
	node *xmlquery.Node
}

// Parse reads an XML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// NewDocument starts a document with a single root element.
func NewDocument(rootName string) *Document {
	doc := &xmlquery.Node{Type: xmlquery.DocumentNode}
	xmlquery.AddChild(doc, &xmlquery.Node{Type: xmlquery.ElementNode, Data: rootName})
	return &Document{root: doc}
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

// XPathFirst executes an XPath query and returns the first matching node,
// or nil when nothing matches.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	node, err := xmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if node == nil {
		return nil, nil
	}
	return &Node{node: node}, nil
}

// Write writes the document with an XML declaration, one element per line,
// indented by indent per level.
func (d *Document) Write(w io.Writer, indent string) error {
	if indent == "" {
		indent = "  "
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			writeElement(bw, child, 0, indent)
		}
	}
	return bw.Flush()
}

func writeElement(w *bufio.Writer, n *xmlquery.Node, depth int, indent string) {
	w.WriteString(strings.Repeat(indent, depth))
	w.WriteString("<")
	w.WriteString(n.Data)
	for _, attr := range n.Attr {
		w.WriteString(" ")
		w.WriteString(attr.Name.Local)
		w.WriteString(`="`)
		w.WriteString(encoding.EscapeXMLAttr(attr.Value))
		w.WriteString(`"`)
	}

	if n.FirstChild == nil {
		w.WriteString("/>\n")
		return
	}

	hasElements := false
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			hasElements = true
			break
		}
	}

	w.WriteString(">")
	if !hasElements {
		// Text is written verbatim (escaped), so leading and trailing spaces
		// in verse content survive a round trip.
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.TextNode || child.Type == xmlquery.CharDataNode {
				w.WriteString(encoding.EscapeXMLText(child.Data))
			}
		}
	} else {
		w.WriteString("\n")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				writeElement(w, child, depth+1, indent)
			}
		}
		w.WriteString(strings.Repeat(indent, depth))
	}
	w.WriteString("</")
	w.WriteString(n.Data)
	w.WriteString(">\n")
}

// AddElement appends a child element named name and returns it.
func (n *Node) AddElement(name string) *Node {
	child := &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}
	xmlquery.AddChild(n.node, child)
	return &Node{node: child}
}

// SetAttr sets an attribute on the element.
func (n *Node) SetAttr(name, value string) *Node {
	xmlquery.AddAttr(n.node, name, value)
	return n
}

// SetText appends a text child to the element.
func (n *Node) SetText(text string) *Node {
	xmlquery.AddChild(n.node, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
	return n
}

// Name returns the element name.
func (n *Node) Name() string {
	if n.node == nil {
		return ""
	}
	return n.node.Data
}

// Text returns all text content of the node and its descendants.
func (n *Node) Text() string {
	if n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Children returns the child element nodes.
func (n *Node) Children() []*Node {
	if n.node == nil {
		return nil
	}
	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// Attr returns the value of an attribute, "" when absent.
func (n *Node) Attr(name string) string {
	if n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(name string) bool {
	if n.node == nil {
		return false
	}
	for _, a := range n.node.Attr {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}
