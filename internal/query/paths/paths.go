// Package paths represents field paths into documents as the optimizer
// sees them: a sequence of field accesses, optionally interleaved with
// array-element traversals. A path containing a traversal is "multikey" -
// it can be satisfied by any element of an array, so several independent
// constraints on the same nominal path are meaningful.
package paths

import (
	"fmt"
	"strings"
)

// ElementKind identifies a path element.
type ElementKind int

const (
	// ElementGet descends into a named field.
	ElementGet ElementKind = iota
	// ElementTraverse descends into each element of an array.
	ElementTraverse
)

// Element is a single step of a path.
type Element struct {
	Kind  ElementKind
	Field string // set for ElementGet only
}

// Path is an immutable sequence of path elements rooted at the scanned
// document.
type Path struct {
	elems []Element
}

// Get builds a plain field path: Get(a) Get(b) ... with no traversals.
func Get(fields ...string) Path {
	elems := make([]Element, 0, len(fields))
	for _, f := range fields {
		elems = append(elems, Element{Kind: ElementGet, Field: f})
	}
	return Path{elems: elems}
}

// Child returns a new path descending into the named field.
func (p Path) Child(field string) Path {
	return p.append(Element{Kind: ElementGet, Field: field})
}

// Traversed returns a new path with an array traversal appended.
func (p Path) Traversed() Path {
	return p.append(Element{Kind: ElementTraverse})
}

func (p Path) append(e Element) Path {
	elems := make([]Element, len(p.elems), len(p.elems)+1)
	copy(elems, p.elems)
	return Path{elems: append(elems, e)}
}

// Elements returns the path's elements. Callers must not mutate the
// returned slice.
func (p Path) Elements() []Element {
	return p.elems
}

// Len returns the number of path elements.
func (p Path) Len() int {
	return len(p.elems)
}

// IsEmpty returns true for the root path (the whole document).
func (p Path) IsEmpty() bool {
	return len(p.elems) == 0
}

// IsMultikey returns true if the path contains an array traversal.
// Multikey paths may appear multiple times within a single requirement
// conjunction.
func (p Path) IsMultikey() bool {
	for _, e := range p.elems {
		if e.Kind == ElementTraverse {
			return true
		}
	}
	return false
}

// Equal reports structural equality.
func (p Path) Equal(other Path) bool {
	return p.Compare(other) == 0
}

// Compare defines a total lexicographic order over paths, used to keep
// requirement conjunctions in canonical order.
func (p Path) Compare(other Path) int {
	n := len(p.elems)
	if len(other.elems) < n {
		n = len(other.elems)
	}
	for i := 0; i < n; i++ {
		a, b := p.elems[i], other.elems[i]
		if a.Kind != b.Kind {
			if a.Kind < b.Kind {
				return -1
			}
			return 1
		}
		if a.Field != b.Field {
			if a.Field < b.Field {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p.elems) < len(other.elems):
		return -1
	case len(p.elems) > len(other.elems):
		return 1
	default:
		return 0
	}
}

// String renders the path in dotted form, with "[]" marking traversals:
// Get "a" Traverse Get "b" renders as "a[].b".
func (p Path) String() string {
	if len(p.elems) == 0 {
		return "$root"
	}
	var sb strings.Builder
	for i, e := range p.elems {
		switch e.Kind {
		case ElementGet:
			if i > 0 && p.elems[i-1].Kind == ElementGet {
				sb.WriteByte('.')
			}
			sb.WriteString(e.Field)
		case ElementTraverse:
			sb.WriteString("[]")
			if i < len(p.elems)-1 {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// Parse parses the dotted rendering produced by String: field names
// separated by dots, with a "[]" suffix on a field marking a traversal
// after it. For example "a[].b" parses to Get "a" Traverse Get "b".
func Parse(s string) (Path, error) {
	if s == "" || s == "$root" {
		return Path{}, nil
	}
	p := Path{}
	for _, part := range strings.Split(s, ".") {
		traversed := false
		for strings.HasSuffix(part, "[]") {
			part = strings.TrimSuffix(part, "[]")
			traversed = true
		}
		if part == "" {
			return Path{}, fmt.Errorf("invalid path %q: empty field name", s)
		}
		p = p.Child(part)
		if traversed {
			p = p.Traversed()
		}
	}
	return p, nil
}
