package xmlresp

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
)

// Type of a leaf field.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeFloat
	TypeDate
	TypeCoordinates
)

// Field describes one child element (or attribute, when Name starts with "@").
type Field struct {
	Name     string
	Required bool
	Type     Type
	// Multiple collects every occurrence in document order. Only valid with Fields.
	Multiple bool
	// Fields makes this a group element whose children are walked recursively.
	Fields []Field
	// Nullable lets an "unspecified" marker ("Not specified", "N/A", ...) stand for absent.
	Nullable bool
	// Enum restricts the text to these values (matched case-insensitively, stored canonical).
	Enum []string
	// Range bounds numeric values inclusively.
	Range *Range
	// Pattern must match the whole text of a string leaf.
	Pattern *regexp.Regexp
	// Identifier rejects placeholder markers as missing instead of keeping them as text.
	Identifier bool
}

type Range struct{ Min, Max float64 }

// AtLeast bounds a value from below only.
func AtLeast(lo float64) *Range { return &Range{Min: lo, Max: math.MaxFloat64} }

// Schema is the expected shape of one stage's XML block.
type Schema struct {
	Root   string
	Fields []Field
}

// Parse isolates the schema's root element in raw, decodes it and validates it against
// the schema. The returned Record is complete; on error no Record is returned.
func Parse(raw string, s Schema) (Record, error) {
	span, err := ExtractSpan(raw, s.Root)
	if err != nil {
		return Record{}, err
	}
	root, err := decodeTree(span)
	if err != nil {
		return Record{}, err
	}
	if root.name != s.Root {
		return Record{}, ai.Malformed(fmt.Sprintf("root element is <%s>, want <%s>", root.name, s.Root), nil)
	}
	return walk(root, s.Root, s.Fields)
}

func walk(el *element, path string, fields []Field) (Record, error) {
	rec := Record{path: path, values: make(map[string]any, len(fields))}
	for _, f := range fields {
		fpath := path + "/" + f.Name

		if strings.HasPrefix(f.Name, "@") {
			v, ok := el.attrs[f.Name[1:]]
			v = strings.TrimSpace(v)
			if !ok || v == "" {
				if f.Required {
					return Record{}, ai.MissingField(fpath)
				}
				continue
			}
			cv, err := coerce(f, fpath, v)
			if err != nil {
				return Record{}, err
			}
			rec.values[f.Name] = cv
			continue
		}

		if f.Multiple {
			nodes := el.all(f.Name)
			if len(nodes) == 0 && f.Required {
				return Record{}, ai.MissingField(fpath)
			}
			list := make([]Record, 0, len(nodes))
			for i, n := range nodes {
				sub, err := walk(n, fmt.Sprintf("%s[%d]", fpath, i+1), f.Fields)
				if err != nil {
					return Record{}, err
				}
				list = append(list, sub)
			}
			rec.values[f.Name] = list
			continue
		}

		n := el.child(f.Name)
		if n == nil {
			if f.Required {
				return Record{}, ai.MissingField(fpath)
			}
			continue
		}

		if len(f.Fields) > 0 {
			sub, err := walk(n, fpath, f.Fields)
			if err != nil {
				return Record{}, err
			}
			rec.values[f.Name] = sub
			continue
		}

		text := n.value()
		if f.Nullable && isUnspecified(text) {
			continue
		}
		if f.Identifier && isUnspecified(text) {
			return Record{}, ai.MissingField(fpath)
		}
		if text == "" {
			if f.Required {
				return Record{}, ai.MissingField(fpath)
			}
			continue
		}
		cv, err := coerce(f, fpath, text)
		if err != nil {
			return Record{}, err
		}
		rec.values[f.Name] = cv
	}
	return rec, nil
}

var unspecified = map[string]bool{
	"":              true,
	"-":             true,
	"n/a":           true,
	"na":            true,
	"none":          true,
	"null":          true,
	"unknown":       true,
	"ongoing":       true,
	"not specified": true,
	"not available": true,
	"not provided":  true,
}

func isUnspecified(s string) bool {
	return unspecified[strings.ToLower(strings.Trim(strings.TrimSpace(s), "."))]
}
