// Package template parses and expands RML string templates: literal
// text interleaved with {expression} holes. The escapes \{, \} and \\
// produce literal braces and backslashes.
package template

import (
	"fmt"
	"strings"
)

// SegmentKind discriminates template segments.
type SegmentKind int

const (
	// Text is a literal text segment.
	Text SegmentKind = iota
	// Expression is a {hole} referencing a record expression.
	Expression
)

// Segment is one parsed piece of a template.
type Segment struct {
	Kind  SegmentKind
	Value string
}

// Template is a parsed template.
type Template struct {
	raw      string
	segments []Segment
}

// Parse parses a template string. Unbalanced or nested braces and
// trailing backslashes are errors.
func Parse(s string) (*Template, error) {
	var (
		segments []Segment
		buf      strings.Builder
		inExpr   bool
	)

	flush := func(kind SegmentKind) {
		if kind == Expression || buf.Len() > 0 {
			segments = append(segments, Segment{Kind: kind, Value: buf.String()})
		}
		buf.Reset()
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 >= len(s) {
				return nil, fmt.Errorf("template %q: trailing backslash", s)
			}
			next := s[i+1]
			if next != '{' && next != '}' && next != '\\' {
				return nil, fmt.Errorf("template %q: invalid escape \\%c", s, next)
			}
			buf.WriteByte(next)
			i++
		case '{':
			if inExpr {
				return nil, fmt.Errorf("template %q: nested '{' at offset %d", s, i)
			}
			flush(Text)
			inExpr = true
		case '}':
			if !inExpr {
				return nil, fmt.Errorf("template %q: unmatched '}' at offset %d", s, i)
			}
			if buf.Len() == 0 {
				return nil, fmt.Errorf("template %q: empty expression at offset %d", s, i)
			}
			flush(Expression)
			inExpr = false
		default:
			buf.WriteByte(c)
		}
	}
	if inExpr {
		return nil, fmt.Errorf("template %q: unclosed '{'", s)
	}
	flush(Text)

	return &Template{raw: s, segments: segments}, nil
}

// Segments returns the parsed segments in order.
func (t *Template) Segments() []Segment {
	return t.segments
}

// Expressions returns the distinct hole expressions in first
// appearance order.
func (t *Template) Expressions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range t.segments {
		if seg.Kind == Expression && !seen[seg.Value] {
			seen[seg.Value] = true
			out = append(out, seg.Value)
		}
	}
	return out
}

// String returns the original template text.
func (t *Template) String() string {
	return t.raw
}

// Expand evaluates the template against a record, represented by the
// lookup function. Each distinct expression is looked up once; a
// repeated expression is bound to the same value in every occurrence.
// If any expression yields no values, Expand returns no results. With
// multi-valued expressions the result is the Cartesian product over
// distinct expressions. The optional transform is applied to each
// expression value before concatenation.
func (t *Template) Expand(lookup func(expression string) ([]string, error), transform func(string) string) ([]string, error) {
	exprs := t.Expressions()

	values := make(map[string][]string, len(exprs))
	for _, expr := range exprs {
		vs, err := lookup(expr)
		if err != nil {
			return nil, err
		}
		if len(vs) == 0 {
			return nil, nil
		}
		if transform != nil {
			transformed := make([]string, len(vs))
			for i, v := range vs {
				transformed[i] = transform(v)
			}
			vs = transformed
		}
		values[expr] = vs
	}

	bindings := []map[string]string{{}}
	for _, expr := range exprs {
		var next []map[string]string
		for _, binding := range bindings {
			for _, v := range values[expr] {
				b := make(map[string]string, len(binding)+1)
				for k, bv := range binding {
					b[k] = bv
				}
				b[expr] = v
				next = append(next, b)
			}
		}
		bindings = next
	}

	out := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		var b strings.Builder
		for _, seg := range t.segments {
			if seg.Kind == Text {
				b.WriteString(seg.Value)
			} else {
				b.WriteString(binding[seg.Value])
			}
		}
		out = append(out, b.String())
	}
	return out, nil
}
