// Package xmltree parses small XML documents into an element tree. dLibra
// serves a handful of ad-hoc XML dialects (presentation data, RDF) which are
// easier to walk than to map onto structs.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNoRoot is returned for input without any element.
var ErrNoRoot = errors.New("xmltree: no root element")

// Node is a single element. Text is the concatenated character data directly
// inside the element, CDATA sections included.
type Node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Text     string
	Children []*Node
}

// Parse reads a complete document and returns its root element. Any syntax
// error, an empty document or a document without elements fails.
func Parse(b []byte) (*Node, error) {
	return Decode(bytes.NewReader(b))
}

// Decode is like Parse, but reads from r. Documents declaring a legacy
// encoding, e.g. ISO-8859-2, are converted to UTF-8.
func Decode(r io.Reader) (*Node, error) {
	var (
		dec   = xml.NewDecoder(r)
		root  *Node
		stack []*Node
		text  []*strings.Builder
	)
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("xmltree: multiple root elements")
			}
			n := &Node{Name: t.Name, Attr: t.Copy().Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})
		case xml.EndElement:
			last := len(stack) - 1
			stack[last].Text = text[last].String()
			stack, text = stack[:last], text[:last]
		case xml.CharData:
			if len(stack) > 0 {
				text[len(text)-1].Write(t)
			}
		}
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	return root, nil
}

// Find returns the first descendant element with the given local name, in
// document order, or nil.
func (n *Node) Find(local string) *Node {
	for d := range n.Descendants() {
		if d.Name.Local == local {
			return d
		}
	}
	return nil
}

// Descendants yields all elements below n in document order.
func (n *Node) Descendants() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	for _, c := range n.Children {
		if !yield(c) || !c.walk(yield) {
			return false
		}
	}
	return true
}

// FirstChild returns the first child element or nil.
func (n *Node) FirstChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// AttrValue returns the value of the first attribute with the given local
// name.
func (n *Node) AttrValue(local string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}
