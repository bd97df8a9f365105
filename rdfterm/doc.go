// Package rdfterm provides the RDF value layer of the engine: the
// Statement quad, an in-memory Graph with isomorphism comparison, and
// the ValueFactory plug-point for constructing terms.
//
// Term types themselves come from github.com/knakk/rdf; this package
// only adds what the mapping engine needs on top of them.
package rdfterm
