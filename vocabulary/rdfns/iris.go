// Package rdfns defines the handful of terms from the core RDF
// namespace the engine emits and recognizes.
package rdfns

// Namespace is the base IRI of the RDF namespace.
const Namespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

const (
	// Type is the rdf:type predicate.
	Type = Namespace + "type"

	// LangString is the datatype of language-tagged literals.
	LangString = Namespace + "langString"
)
