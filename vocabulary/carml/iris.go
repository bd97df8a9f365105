// Package carml defines IRI constants for the stream and source
// extension vocabulary recognized by this engine.
package carml

// Namespace is the base IRI of the extension vocabulary.
const Namespace = "http://carml.taxonic.com/carml/"

const (
	// Stream is the class of named input streams. A logical source whose
	// rml:source is a carml:Stream is bound at run time against the
	// named input streams handed to the mapper.
	Stream = Namespace + "Stream"

	// StreamName is the logical name of a stream source. Absent means
	// the unnamed default stream.
	StreamName = Namespace + "streamName"

	// FileSource is the class of file-described sources.
	FileSource = Namespace + "FileSource"

	// URL is the location of a carml:FileSource.
	URL = Namespace + "url"

	// CSS3 selects the HTML decoder. Records are elements matched by a
	// CSS selector; expressions are selectors with an optional trailing
	// attribute accessor.
	CSS3 = Namespace + "CSS3"
)
