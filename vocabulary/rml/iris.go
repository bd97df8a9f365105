// Package rml defines IRI constants for the RML vocabulary, the
// generalization of R2RML to non-relational sources.
package rml

// Namespace is the base IRI of the RML vocabulary.
const Namespace = "http://semweb.mmlab.be/ns/rml#"

const (
	// LogicalSourceClass is the class of logical sources.
	LogicalSourceClass = Namespace + "LogicalSource"

	// LogicalSource links a triples map to its logical source.
	LogicalSource = Namespace + "logicalSource"

	// Source is the source reference of a logical source. Its value is
	// either a literal (an opaque reference handed to source resolvers)
	// or a described source entity such as a carml:Stream.
	Source = Namespace + "source"

	// ReferenceFormulation selects the decoder used to produce records
	// from the source bytes.
	ReferenceFormulation = Namespace + "referenceFormulation"

	// Iterator is the expression selecting records within a
	// hierarchical document.
	Iterator = Namespace + "iterator"

	// Reference is the expression a term map evaluates against a record.
	Reference = Namespace + "reference"
)
