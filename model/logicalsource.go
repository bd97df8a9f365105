package model

import (
	"fmt"

	"github.com/knakk/rdf"
)

// LogicalSource describes one input: an opaque source reference, the
// reference formulation selecting the decoder, and an optional
// iterator expression into hierarchical documents.
//
// Logical sources compare by value; triples maps with equal logical
// sources share one source pipeline.
type LogicalSource struct {
	resource

	// Source is the source reference: a string handed verbatim to the
	// source resolvers, or a described source such as *Stream or
	// *FileSource.
	Source any

	// ReferenceFormulation selects the decoder.
	ReferenceFormulation rdf.IRI

	// Iterator selects records within the decoded document. Empty
	// means the decoder's natural record unit.
	Iterator string
}

// Key returns the value-identity of the logical source. Two logical
// sources with equal keys share one pipeline.
func (l *LogicalSource) Key() string {
	if l == nil {
		return ""
	}
	return sourceKey(l.Source) + "\x00" + l.ReferenceFormulation.String() + "\x00" + l.Iterator
}

// Equal reports value equality.
func (l *LogicalSource) Equal(other *LogicalSource) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.Key() == other.Key()
}

// String returns a debug description.
func (l *LogicalSource) String() string {
	return fmt.Sprintf("LogicalSource(source=%s, formulation=%s, iterator=%q)",
		sourceKey(l.Source), l.ReferenceFormulation, l.Iterator)
}

func sourceKey(source any) string {
	switch s := source.(type) {
	case nil:
		return ""
	case string:
		return "ref:" + s
	case *Stream:
		return "stream:" + s.Name
	case *FileSource:
		return "file:" + s.URL
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Stream is a named input stream source. A logical source referring
// to a stream is bound at run time against the named input streams
// handed to the mapper. Streams are equal by name; the empty name is
// the unnamed default stream.
type Stream struct {
	resource
	Name string
}

// Equal reports value equality.
func (s *Stream) Equal(other *Stream) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Name == other.Name
}

// String returns a debug description.
func (s *Stream) String() string {
	return fmt.Sprintf("Stream(%q)", s.Name)
}

// FileSource is a file-described source with an explicit location.
type FileSource struct {
	resource
	URL string
}

// Equal reports value equality.
func (f *FileSource) Equal(other *FileSource) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.URL == other.URL
}

// String returns a debug description.
func (f *FileSource) String() string {
	return fmt.Sprintf("FileSource(%q)", f.URL)
}
