// Package rr defines IRI constants for the W3C R2RML vocabulary.
//
// R2RML (RDB to RDF Mapping Language) is the base vocabulary that RML
// extends. The mapping loader and serializer recognize these terms in
// mapping documents.
package rr
