package rdfterm

import (
	"strings"

	"github.com/google/uuid"
	"github.com/knakk/rdf"
)

// ValueFactory constructs RDF terms. The engine routes every term
// construction through a factory so callers can substitute their own,
// e.g. to intern terms or enforce additional validation.
type ValueFactory interface {
	// IRI constructs an IRI term from an absolute IRI string.
	IRI(iri string) (rdf.IRI, error)

	// BlankNode constructs a blank node with a fresh, unique identifier.
	BlankNode() (rdf.Blank, error)

	// BlankNodeID constructs a blank node with the given identifier.
	BlankNodeID(id string) (rdf.Blank, error)

	// Literal constructs a plain string literal.
	Literal(value string) (rdf.Literal, error)

	// LangLiteral constructs a language-tagged literal.
	LangLiteral(value, lang string) (rdf.Literal, error)

	// TypedLiteral constructs a literal with the given datatype.
	TypedLiteral(value string, datatype rdf.IRI) rdf.Literal
}

// Factory is the default ValueFactory backed by knakk/rdf
// constructors. Fresh blank node identifiers are UUID-derived.
type Factory struct{}

// NewFactory returns the default value factory.
func NewFactory() Factory {
	return Factory{}
}

// IRI implements ValueFactory.
func (Factory) IRI(iri string) (rdf.IRI, error) {
	return rdf.NewIRI(iri)
}

// BlankNode implements ValueFactory.
func (Factory) BlankNode() (rdf.Blank, error) {
	id := "b" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return rdf.NewBlank(id)
}

// BlankNodeID implements ValueFactory.
func (Factory) BlankNodeID(id string) (rdf.Blank, error) {
	return rdf.NewBlank(id)
}

// Literal implements ValueFactory.
func (Factory) Literal(value string) (rdf.Literal, error) {
	return rdf.NewLiteral(value)
}

// LangLiteral implements ValueFactory.
func (Factory) LangLiteral(value, lang string) (rdf.Literal, error) {
	return rdf.NewLangLiteral(value, lang)
}

// TypedLiteral implements ValueFactory.
func (Factory) TypedLiteral(value string, datatype rdf.IRI) rdf.Literal {
	return rdf.NewTypedLiteral(value, datatype)
}
