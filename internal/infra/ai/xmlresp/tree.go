package xmlresp

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
)

type element struct {
	name     string
	attrs    map[string]string
	text     strings.Builder
	children []*element
}

// child returns the first direct child with the given name.
func (e *element) child(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// all returns every direct child with the given name in document order.
func (e *element) all(name string) []*element {
	var out []*element
	for _, c := range e.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (e *element) value() string { return strings.TrimSpace(e.text.String()) }

// decodeTree parses a single XML element into a tree. Namespaces are dropped.
func decodeTree(span string) (*element, error) {
	dec := xml.NewDecoder(strings.NewReader(span))
	dec.Strict = true

	var root *element
	var stack []*element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ai.Malformed("invalid xml", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name.Local, attrs: map[string]string{}}
			for _, a := range t.Attr {
				el.attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, ai.Malformed("more than one root element", nil)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, ai.Malformed("empty document", nil)
	}
	return root, nil
}
