package rdfterm

import (
	"strings"

	"github.com/knakk/rdf"
)

// Statement is one output unit of the engine: an RDF triple with an
// optional named graph. A nil Graph means the default graph.
type Statement struct {
	Subject   rdf.Subject
	Predicate rdf.IRI
	Object    rdf.Object
	Graph     rdf.Term
}

// Triple returns the statement without its graph component.
func (s Statement) Triple() rdf.Triple {
	return rdf.Triple{Subj: s.Subject, Pred: s.Predicate, Obj: s.Object}
}

// Key returns a canonical string form of the statement, usable as a
// map key. Statements with equal terms and graph have equal keys.
func (s Statement) Key() string {
	var b strings.Builder
	b.WriteString(s.Subject.Serialize(rdf.NTriples))
	b.WriteByte(' ')
	b.WriteString(s.Predicate.Serialize(rdf.NTriples))
	b.WriteByte(' ')
	b.WriteString(s.Object.Serialize(rdf.NTriples))
	if s.Graph != nil {
		b.WriteByte(' ')
		b.WriteString(s.Graph.Serialize(rdf.NTriples))
	}
	return b.String()
}

// String returns the statement in N-Quads style, without trailing dot.
func (s Statement) String() string {
	return s.Key()
}

// TermKey returns the canonical string form of a term, or the empty
// string for nil.
func TermKey(t rdf.Term) string {
	if t == nil {
		return ""
	}
	return t.Serialize(rdf.NTriples)
}
