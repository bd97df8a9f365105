// Package mapping bridges the in-memory mapping model and its RDF
// description: loading a set of triples maps from a mapping graph and
// serializing them back. Load and Serialize round-trip up to graph
// isomorphism on the mapping subset of triples.
package mapping

import (
	"io"

	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/knakk/rdf"
)

// LoadFromReader parses a mapping document in the given concrete
// syntax and loads its triples maps.
func LoadFromReader(r io.Reader, format rdf.Format) ([]*model.TriplesMap, error) {
	g, err := rdfterm.Decode(r, format)
	if err != nil {
		return nil, err
	}
	return Load(g)
}

func mustIRI(s string) rdf.IRI {
	iri, err := rdf.NewIRI(s)
	if err != nil {
		panic("mapping: invalid vocabulary IRI " + s + ": " + err.Error())
	}
	return iri
}
