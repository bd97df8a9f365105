package model

import (
	"fmt"

	"github.com/knakk/rdf"
)

// TermType is the kind of RDF term a term map generates.
type TermType int

const (
	// TermTypeUnset means the term map declares no explicit term type;
	// the engine applies the R2RML defaulting rules.
	TermTypeUnset TermType = iota
	TermTypeIRI
	TermTypeBlankNode
	TermTypeLiteral
)

// String returns the term type name.
func (t TermType) String() string {
	switch t {
	case TermTypeIRI:
		return "IRI"
	case TermTypeBlankNode:
		return "BlankNode"
	case TermTypeLiteral:
		return "Literal"
	default:
		return "unset"
	}
}

// ExpressionMap is the value-producing core shared by all term maps.
// At most one of Constant, Reference, Template and FunctionValue may
// be set.
type ExpressionMap struct {
	// Constant is a fixed RDF term.
	Constant rdf.Term

	// Reference is an expression evaluated against the record.
	Reference string

	// Template is a string template with {expression} holes.
	Template string

	// FunctionValue is a triples map describing a function execution
	// whose results become the term values.
	FunctionValue *TriplesMap
}

// IsSet reports whether any value expression is declared.
func (e *ExpressionMap) IsSet() bool {
	return e.Constant != nil || e.Reference != "" || e.Template != "" || e.FunctionValue != nil
}

// Validate checks the at-most-one-of invariant. A term map with no
// expression at all is allowed (blank node term maps may be valueless).
func (e *ExpressionMap) Validate() error {
	n := 0
	if e.Constant != nil {
		n++
	}
	if e.Reference != "" {
		n++
	}
	if e.Template != "" {
		n++
	}
	if e.FunctionValue != nil {
		n++
	}
	if n > 1 {
		return ErrInvalidTermMap
	}
	return nil
}

func (e *ExpressionMap) equal(other *ExpressionMap) bool {
	if e.Reference != other.Reference || e.Template != other.Template {
		return false
	}
	if termKey(e.Constant) != termKey(other.Constant) {
		return false
	}
	if (e.FunctionValue == nil) != (other.FunctionValue == nil) {
		return false
	}
	if e.FunctionValue != nil && !e.FunctionValue.Equal(other.FunctionValue) {
		return false
	}
	return true
}

func (e *ExpressionMap) describe() string {
	switch {
	case e.Constant != nil:
		return fmt.Sprintf("constant=%s", e.Constant.Serialize(rdf.NTriples))
	case e.Reference != "":
		return fmt.Sprintf("reference=%q", e.Reference)
	case e.Template != "":
		return fmt.Sprintf("template=%q", e.Template)
	case e.FunctionValue != nil:
		return "functionValue=" + e.FunctionValue.ResourceID()
	default:
		return "empty"
	}
}

// TermMap is an ExpressionMap plus the declared term type.
type TermMap struct {
	resource
	ExpressionMap
	TermType TermType
}

func (t *TermMap) equalTermMap(other *TermMap) bool {
	return t.TermType == other.TermType && t.ExpressionMap.equal(&other.ExpressionMap)
}

// SubjectMap generates the subjects of a triples map, the rdf:type
// classes emitted for them, and the subject-scoped graphs.
type SubjectMap struct {
	TermMap
	Classes   []rdf.IRI
	GraphMaps []*GraphMap
}

// Equal reports structural equality.
func (s *SubjectMap) Equal(other *SubjectMap) bool {
	if s == nil || other == nil {
		return s == other
	}
	if !s.equalTermMap(&other.TermMap) || len(s.Classes) != len(other.Classes) {
		return false
	}
	for i, c := range s.Classes {
		if c != other.Classes[i] {
			return false
		}
	}
	return graphMapsEqual(s.GraphMaps, other.GraphMaps)
}

// String returns a debug description.
func (s *SubjectMap) String() string {
	return fmt.Sprintf("SubjectMap(%s, %s, termType=%s, classes=%d)",
		s.ResourceID(), s.describe(), s.TermType, len(s.Classes))
}

// PredicateMap generates the predicates of a predicate-object map.
type PredicateMap struct {
	TermMap
}

// Equal reports structural equality.
func (p *PredicateMap) Equal(other *PredicateMap) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.equalTermMap(&other.TermMap)
}

// String returns a debug description.
func (p *PredicateMap) String() string {
	return fmt.Sprintf("PredicateMap(%s, %s)", p.ResourceID(), p.describe())
}

// ObjectMap generates the objects of a predicate-object map. Datatype
// and Language only apply to literal term types.
type ObjectMap struct {
	TermMap
	Datatype rdf.IRI
	Language string
}

// Equal reports structural equality.
func (o *ObjectMap) Equal(other *ObjectMap) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.equalTermMap(&other.TermMap) &&
		o.Datatype == other.Datatype &&
		o.Language == other.Language
}

// String returns a debug description.
func (o *ObjectMap) String() string {
	return fmt.Sprintf("ObjectMap(%s, %s, termType=%s, datatype=%s, lang=%q)",
		o.ResourceID(), o.describe(), o.TermType, o.Datatype, o.Language)
}

// GraphMap generates the named graphs statements are placed in.
type GraphMap struct {
	TermMap
}

// Equal reports structural equality.
func (g *GraphMap) Equal(other *GraphMap) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.equalTermMap(&other.TermMap)
}

// String returns a debug description.
func (g *GraphMap) String() string {
	return fmt.Sprintf("GraphMap(%s, %s)", g.ResourceID(), g.describe())
}

func graphMapsEqual(a, b []*GraphMap) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func termKey(t rdf.Term) string {
	if t == nil {
		return ""
	}
	return t.Serialize(rdf.NTriples)
}
